package cmd

import (
	"fmt"
	"io"

	"github.com/andrewhowdencom/newsrender/internal/sourcer"
)

// buildFetcher creates a fetcher for plain paths, file:// URIs and stdin.
func buildFetcher(in io.Reader) *sourcer.CompositeFetcher {
	fetcher := sourcer.NewCompositeFetcher()
	fetcher.AddFetcher("", sourcer.NewFileFetcher())
	fetcher.AddFetcher("file", sourcer.NewFileFetcher())
	fetcher.AddFetcher("stdin", sourcer.NewStdinFetcher(in))
	return fetcher
}

// buildSourcer creates a new sourcer with the default fetchers.
func buildSourcer(in io.Reader) (sourcer.Sourcer, error) {
	parser, err := sourcer.NewFeedParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}
	return sourcer.NewSourcer(buildFetcher(in), parser), nil
}

// uriArg returns the single optional URI argument, defaulting to stdin.
func uriArg(args []string) string {
	if len(args) == 0 {
		return sourcer.StdinURI
	}
	return args[0]
}
