// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muran-prog/kimi-go/cli/config"
	"github.com/muran-prog/kimi-go/core"
	"github.com/muran-prog/kimi-go/kimi"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAuth       = 2
	ExitAPI        = 3
	ExitUpload     = 4
)

var (
	// Global flags
	cfgFile     string
	cookiesFile string
	proxy       string
	timeout     time.Duration
	jsonOutput  bool
	verbose     bool

	// Loaded configuration
	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "kimi",
	Short: "Kimi - command-line client for the Kimi web API",
	Long: `Kimi is a command-line client for the Kimi conversational AI web API.

It authenticates with browser session cookies exported in Netscape format.
Use it to create chats, send messages, stream responses, and upload files
for use as conversation context.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It installs signal handling so an interrupt
// cancels in-flight streams cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.kimi/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&cookiesFile, "cookies", "", "Netscape cookie file with the kimi-auth session cookie")
	rootCmd.PersistentFlags().StringVar(&proxy, "proxy", "", "proxy URL (http, https, or socks5)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "request timeout for non-streaming calls")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}

// initConfig reads in config file and sets defaults.
func initConfig() error {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Apply config defaults if flags not set
	if cookiesFile == "" {
		cookiesFile = cfg.CookiesFile
	}
	if cookiesFile == "" {
		cookiesFile = config.DefaultCookiesPath()
	}
	if proxy == "" {
		proxy = cfg.Proxy
	}
	if timeout == 0 {
		timeout = cfg.Timeout
	}

	return nil
}

// newEngine builds an engine from the effective configuration.
func newEngine() (*kimi.Engine, error) {
	opts := []kimi.Option{
		kimi.WithCookiesFile(cookiesFile),
		kimi.WithTelemetry(slogHook{log: logger}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, kimi.WithBaseURL(cfg.BaseURL))
	}
	if proxy != "" {
		opts = append(opts, kimi.WithProxy(proxy))
	}
	if timeout > 0 {
		opts = append(opts, kimi.WithTimeout(timeout))
	}

	engine, err := kimi.New(opts...)
	if err != nil {
		return nil, handleError(err)
	}
	return engine, nil
}

// slogHook reports engine telemetry through the CLI logger.
type slogHook struct {
	log *slog.Logger
}

func (h slogHook) OnRequestStart(e core.RequestStartEvent) {
	h.log.Debug("request start", "op", e.Op, "request_id", e.RequestID)
}

func (h slogHook) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []any{
		"op", e.Op,
		"request_id", e.RequestID,
		"status", e.Status,
		"duration", e.End.Sub(e.Start).String(),
	}
	if e.Err != nil {
		h.log.Warn("request failed", append(attrs, "error", e.Err.Error())...)
		return
	}
	h.log.Debug("request end", attrs...)
}

// handleError maps a library error to a user-facing message and exit code.
func handleError(err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		if jsonOutput {
			outputErrorJSON(ce)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", ce.Message)
			if ce.Status != 0 {
				fmt.Fprintf(os.Stderr, "  Operation: %s, HTTP status: %d\n", ce.Op, ce.Status)
			}
		}
		return exitWithCode(classifyExit(err), err)
	}

	if jsonOutput {
		outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitWithCode(classifyExit(err), err)
}

func classifyExit(err error) int {
	switch {
	case errors.Is(err, core.ErrConfiguration):
		return ExitValidation
	case errors.Is(err, core.ErrAuthentication):
		return ExitAuth
	case errors.Is(err, core.ErrFileUpload):
		return ExitUpload
	default:
		return ExitAPI
	}
}

func outputErrorJSON(ce *core.Error) {
	output := map[string]any{
		"error": map[string]any{
			"op":      ce.Op,
			"status":  ce.Status,
			"message": ce.Message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

func outputSimpleErrorJSON(errType, message string) {
	output := map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
