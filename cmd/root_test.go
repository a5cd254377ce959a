package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/andrewhowdencom/newsrender/internal/cover"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the XDG config home at an empty directory and clears
// viper when the test ends.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)
}

// resetFlags puts every flag of cmd and its children back to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and stdin, returning what
// it wrote to stdout.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	isolateConfig(t)
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitConfig(t *testing.T) {
	t.Run("uses config from --config flag if set", func(t *testing.T) {
		isolateConfig(t)
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("log:\n  level: debug\ningest:\n  workers: 2"), 0644))

		// Simulate setting the --config flag
		cfgFile = configPath
		t.Cleanup(func() { cfgFile = "" })

		InitConfig()

		assert.Equal(t, configPath, viper.ConfigFileUsed())
		assert.Equal(t, "debug", viper.GetString("log.level"))
		assert.Equal(t, 2, viper.GetInt("ingest.workers"))
	})

	t.Run("uses XDG config path if --config is not set", func(t *testing.T) {
		isolateConfig(t)
		xdgDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "newsrender")
		require.NoError(t, os.MkdirAll(xdgDir, 0755))
		xdgConfigPath := filepath.Join(xdgDir, "config.yaml")
		require.NoError(t, os.WriteFile(xdgConfigPath, []byte("media:\n  root: /srv/media"), 0644))

		cfgFile = ""
		InitConfig()

		assert.Equal(t, xdgConfigPath, viper.ConfigFileUsed())
		assert.Equal(t, "/srv/media", viper.GetString("media.root"))
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		isolateConfig(t)
		t.Setenv("NEWSRENDER_INGEST_MAX_POSTS", "3")
		t.Setenv("NEWSRENDER_PROXY_URL", "socks5://127.0.0.1:1080")

		cfgFile = ""
		InitConfig()

		assert.Equal(t, 3, viper.GetInt("ingest.max_posts"))
		assert.Equal(t, "socks5://127.0.0.1:1080", viper.GetString("proxy.url"))
	})

	t.Run("proceeds with defaults if no config file is found", func(t *testing.T) {
		isolateConfig(t)

		cfgFile = ""
		assert.NotPanics(t, func() {
			InitConfig()
		})
		assert.Equal(t, "", viper.ConfigFileUsed())
		assert.Equal(t, "media", viper.GetString("media.root"))
		assert.Equal(t, cover.DefaultPattern, viper.GetString("cover.pattern"))
		assert.Equal(t, cover.DefaultPathTemplate, viper.GetString("cover.path_template"))
		assert.Equal(t, 4, viper.GetInt("ingest.workers"))
		assert.Equal(t, 9, viper.GetInt("ingest.max_posts"))
		assert.False(t, viper.GetBool("render.sanitize"))
		assert.Equal(t, "", viper.GetString("otel.endpoint"))
	})
}
