package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/cache"
	"github.com/ALT-F4-LLC/ticketboard/internal/config"
	"github.com/ALT-F4-LLC/ticketboard/internal/logger"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/remote"
	"github.com/ALT-F4-LLC/ticketboard/internal/service"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	cfgKey   contextKey = "cfg"
	logKey   contextKey = "log"
	svcKey   contextKey = "svc"
	cacheKey contextKey = "cache"
)

// CmdError wraps an error with a machine-readable error code for structured output.
type CmdError struct {
	Err  error
	Code output.ErrorCode
}

func (e *CmdError) Error() string { return e.Err.Error() }

func (e *CmdError) Unwrap() error { return e.Err }

func cmdErr(err error, code output.ErrorCode) *CmdError {
	return &CmdError{Err: err, Code: code}
}

// wrapErr classifies err by its sentinel and prefixes it with what was being
// attempted.
func wrapErr(err error, doing string) *CmdError {
	return cmdErr(fmt.Errorf("%s: %w", doing, err), output.Classify(err))
}

var rootCmd = &cobra.Command{
	Use:     "ticketboard",
	Short:   "Kanban ticket tracker with an offline-capable local cache",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Resolve(configPath)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		log := newLogger(cmd, cfg, os.Stderr)
		ctx := context.WithValue(cmd.Context(), cfgKey, cfg)
		ctx = context.WithValue(ctx, logKey, log)

		if _, ok := cmd.Annotations["skipBackend"]; ok {
			cmd.SetContext(ctx)
			return nil
		}

		store, err := cache.Open(cache.Config{Path: cfg.CacheDir, Logger: log})
		if err != nil {
			return cmdErr(fmt.Errorf("opening local cache: %w", err), output.ErrUnavailable)
		}

		var rem service.Remote
		if !cfg.Offline {
			rem = remote.New(cfg.APIBase, config.DefaultAuthor())
		}
		svc := service.New(rem, store, log)

		ctx = context.WithValue(ctx, cacheKey, store)
		cmd.SetContext(context.WithValue(ctx, svcKey, svc))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		getWriter(cmd).StaleNotice()
		return closeCache(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// newLogger keeps stdout clean for JSON and quiet modes by raising the level.
func newLogger(cmd *cobra.Command, cfg *config.Config, w io.Writer) zerolog.Logger {
	log := logger.New(cfg.Env, w)
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	if jsonMode || quietMode {
		log = log.Level(zerolog.ErrorLevel)
	}
	return log
}

func getWriter(cmd *cobra.Command) *output.Writer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	w := output.New(jsonMode, quietMode)
	if svc := getService(cmd); svc != nil {
		w.Stale = svc.Offline
	}
	return w
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := value(cmd, cfgKey).(*config.Config)
	return cfg
}

// value reads a key from the command context, tolerating commands that
// never ran their pre-run hook.
func value(cmd *cobra.Command, key contextKey) any {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	return cmd.Context().Value(key)
}

func getLogger(cmd *cobra.Command) zerolog.Logger {
	if l, ok := value(cmd, logKey).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}

func getService(cmd *cobra.Command) *service.Service {
	svc, _ := value(cmd, svcKey).(*service.Service)
	return svc
}

func closeCache(cmd *cobra.Command) error {
	if store, ok := value(cmd, cacheKey).(*cache.Store); ok && store != nil {
		return store.Close()
	}
	return nil
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		// PostRun is skipped when RunE fails.
		if cerr := closeCache(cmd); cerr != nil {
			log := getLogger(cmd)
			log.Error().Err(cerr).Msg("closing local cache")
		}

		jsonMode, _ := rootCmd.PersistentFlags().GetBool("json")
		quietMode, _ := rootCmd.PersistentFlags().GetBool("quiet")
		w := output.New(jsonMode, quietMode)

		var ce *CmdError
		if errors.As(err, &ce) {
			return w.Error(ce.Err, ce.Code)
		}
		return w.Error(err, output.ErrGeneral)
	}
	return 0
}
