/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/andrewhowdencom/newsrender/cmd"

func main() {
	cmd.Execute()
}
