package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/api"
	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the ticket HTTP API",
	Annotations: map[string]string{"skipBackend": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getCfg(cmd)
		l := getLogger(cmd)

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ListenAddr = addr
		}

		store, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			return cmdErr(fmt.Errorf("connecting to database: %w", err), output.ErrUnavailable)
		}
		if store != nil {
			defer store.Close()
			if err := store.Initialize(cmd.Context()); err != nil {
				return cmdErr(fmt.Errorf("initializing schema: %w", err), output.ErrGeneral)
			}
			if err := store.Migrate(cmd.Context()); err != nil {
				return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
			}
			l.Info().Str("dialect", string(store.Dialect())).Str("source", cfg.DatabaseURLVar).Msg("database ready")
		} else {
			l.Warn().Msg("no database configured; /api routes answer 503")
		}

		srv := &http.Server{
			Addr: cfg.ListenAddr,
			Handler: api.NewRouter(l, store, api.Options{
				AllowedOrigins: cfg.AllowedOrigins,
				RateLimit:      cfg.RateLimit,
			}),
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			l.Info().Str("addr", srv.Addr).Msg("api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
			close(errc)
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stop)

		select {
		case err := <-errc:
			return cmdErr(fmt.Errorf("server error: %w", err), output.ErrGeneral)
		case <-stop:
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return cmdErr(fmt.Errorf("shutting down: %w", err), output.ErrGeneral)
		}
		l.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TICKETBOARD_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
