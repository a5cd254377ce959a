/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/andrewhowdencom/newsrender/internal/cover"
	"github.com/andrewhowdencom/newsrender/internal/otel"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newsrender",
	Short: "Render Steam news posts for the site.",
	Long: `Render Steam news posts for the site.

Community announcements are converted from BBCode to HTML. Posts from other
feeds have their first image pulled out of the body, fetched, and stored as a
989x427 JPEG cover.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to break the
	// rootCmd -> InitConfig -> setDefaults -> rootCmd initialization cycle.
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		InitConfig()
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/newsrender/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("otel-endpoint", "", "OpenTelemetry OTLP/HTTP endpoint")
	rootCmd.PersistentFlags().String("proxy", "", "Proxy for image fetches (socks5://, socks5h://, http://, https://)")
	rootCmd.PersistentFlags().String("media-root", "media", "Directory cover images are written below")
}

// setDefaults registers configuration defaults and flag bindings. It runs on
// every InitConfig so it survives a viper.Reset.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("proxy.url", "")
	viper.SetDefault("media.root", "media")
	viper.SetDefault("cover.pattern", cover.DefaultPattern)
	viper.SetDefault("cover.path_template", cover.DefaultPathTemplate)
	viper.SetDefault("ingest.workers", 4)
	viper.SetDefault("ingest.max_posts", 9)
	viper.SetDefault("render.sanitize", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.headers", map[string]string{})

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("otel.endpoint", rootCmd.PersistentFlags().Lookup("otel-endpoint"))
	viper.BindPFlag("proxy.url", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("media.root", rootCmd.PersistentFlags().Lookup("media-root"))
	viper.BindPFlag("ingest.workers", ingestCmd.Flags().Lookup("workers"))
	viper.BindPFlag("ingest.max_posts", ingestCmd.Flags().Lookup("max-posts"))
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	setDefaults()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find xdg config path and set it for viper if found.
		configPath, err := xdg.ConfigFile("newsrender/config.yaml")
		if err == nil {
			viper.AddConfigPath(filepath.Dir(configPath))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("NEWSRENDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	configReadErr := viper.ReadInConfig()

	// Initialise the logger
	var programLevel = new(slog.LevelVar)
	switch strings.ToLower(viper.GetString("log.level")) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	default:
		programLevel.Set(slog.LevelInfo)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(handler))

	if configReadErr != nil {
		if _, ok := configReadErr.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("config file not found")
		} else {
			slog.Warn("could not read config file, using defaults", "error", configReadErr)
		}
	}

	// Initialise OpenTelemetry
	if viper.GetString("otel.endpoint") != "" {
		otelShutdown, err := otel.SetupOTelSDK(context.Background(), viper.GetString("otel.endpoint"), viper.GetStringMapString("otel.headers"))
		if err != nil {
			slog.Error("could not setup OpenTelemetry", "error", err)
			os.Exit(1)
		}
		cobra.OnFinalize(func() {
			if err := otelShutdown(context.Background()); err != nil {
				slog.Error("could not shutdown OpenTelemetry", "error", err)
			}
		})
	}
}
