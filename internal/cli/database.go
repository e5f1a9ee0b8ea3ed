package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/config"
	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
)

type setupResult struct {
	Dialect       string         `json:"dialect"`
	SchemaVersion int            `json:"schemaVersion"`
	Seeded        *db.SeedResult `json:"seeded"`
}

type testResult struct {
	Dialect string    `json:"dialect"`
	Counts  db.Counts `json:"counts"`
}

// openStore connects to the configured database. A missing URL is an error
// here: these commands talk to the database directly.
func openStore(cmd *cobra.Command) (*db.Store, error) {
	cfg := getCfg(cmd)
	store, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, cmdErr(fmt.Errorf("connecting to database: %w", err), output.ErrUnavailable)
	}
	if store == nil {
		return nil, cmdErr(fmt.Errorf("no database configured: set DATABASE_URL, POSTGRES_URL or PRISMA_DATABASE_URL"), output.ErrUnavailable)
	}
	return store, nil
}

var setupDBCmd = &cobra.Command{
	Use:         "setup-db",
	Short:       "Create or migrate the database schema and load sample data",
	Annotations: map[string]string{"skipBackend": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctx := cmd.Context()

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Initialize(ctx); err != nil {
			return cmdErr(fmt.Errorf("initializing schema: %w", err), output.ErrGeneral)
		}
		if err := store.Migrate(ctx); err != nil {
			return cmdErr(fmt.Errorf("migrating schema: %w", err), output.ErrGeneral)
		}

		var seeded *db.SeedResult
		if skip, _ := cmd.Flags().GetBool("no-seed"); !skip {
			seeded, err = store.Seed(ctx, config.DefaultAuthor())
			if err != nil {
				return cmdErr(fmt.Errorf("seeding: %w", err), output.ErrGeneral)
			}
		}

		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrGeneral)
		}

		msg := fmt.Sprintf("Database ready (%s, schema v%d)", store.Dialect(), version)
		if seeded != nil {
			msg = fmt.Sprintf("%s; seeded %d user(s) and %d ticket(s)", msg, seeded.Users, seeded.Tickets)
		}
		w.Success(setupResult{Dialect: string(store.Dialect()), SchemaVersion: version, Seeded: seeded}, msg)
		return nil
	},
}

var testDBCmd = &cobra.Command{
	Use:         "test-db",
	Short:       "Check database connectivity and report row counts",
	Annotations: map[string]string{"skipBackend": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Ping(cmd.Context()); err != nil {
			return cmdErr(fmt.Errorf("pinging database: %w", err), output.ErrUnavailable)
		}
		counts, err := store.Counts(cmd.Context())
		if err != nil {
			return cmdErr(fmt.Errorf("counting rows (run setup-db first?): %w", err), output.ErrGeneral)
		}

		w.Success(testResult{Dialect: string(store.Dialect()), Counts: *counts},
			fmt.Sprintf("Connected to %s: %d user(s), %d ticket(s)", store.Dialect(), counts.Users, counts.Tickets))
		return nil
	},
}

func init() {
	setupDBCmd.Flags().Bool("no-seed", false, "Skip sample users and tickets")
	rootCmd.AddCommand(setupDBCmd)
	rootCmd.AddCommand(testDBCmd)
}
