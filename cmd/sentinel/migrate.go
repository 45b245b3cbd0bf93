package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Initialize or upgrade the configured storage backend's schema",
	Long: `Opens the storage backend named in the configuration file and applies its
schema. The sqlite backend creates data/sentinel.db (or the configured path)
with write-ahead logging enabled and the append-only audit-log trigger
installed; the memory backend is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.store.Migrate(context.Background()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("storage backend %q migrated successfully\n", rt.cfg.Storage.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
