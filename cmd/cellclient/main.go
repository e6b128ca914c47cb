package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/cellclient/internal/config"
	"github.com/vango-dev/cellclient/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┬  ┬    ┌─┐┬  ┬┌─┐┌┐┌┌┬┐
  │  ├┤ │  │    │  │  │├┤ │││ │
  └─┘└─┘┴─┘┴─┘  └─┘┴─┘┴└─┘┘└┘ ┴
`

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	logFormat  string
	logLevel   string
}

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "cellclient",
		Short: "A headless client for cell arena game servers",
		Long: `cellclient connects to agar.io-style game servers over WebSocket.

It keeps a primary session and an optional multibox session, decodes
the binary protocol into a world model, reconnects with backoff and
can record every inbound frame for offline replay.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.ConfigFileName, "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		connectCmd(&flags),
		replayCmd(&flags),
		configCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the process logger from the global flags.
func newLogger(flags *globalFlags, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(flags.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, errors.New("E180").WithDetail(fmt.Sprintf("--log-level %q", flags.logLevel))
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(flags.logFormat) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.New("E180").WithDetail(fmt.Sprintf("--log-format %q", flags.logFormat))
	}
}

// loadConfig loads the config named by --config, falling back to
// defaults when the file does not exist.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
