package cmd

import (
	"fmt"

	"verseatlas/internal/config"
	"verseatlas/internal/importer"
	"verseatlas/internal/logger"
	"verseatlas/internal/store"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from JSON dump files",
}

var importPoemsCmd = &cobra.Command{
	Use:   "poems <glob>",
	Short: "Import poem dump files matching a glob pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := importer.ImportPoems(ctx, st, args[0])
		if err != nil {
			return fmt.Errorf("poem import failed: %w", err)
		}
		logger.Info("poem import complete", "poems", total)
		return nil
	},
}

var importAuthorsCmd = &cobra.Command{
	Use:   "authors <glob>",
	Short: "Import author dump files matching a glob pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := importer.ImportAuthors(ctx, st, args[0])
		if err != nil {
			return fmt.Errorf("author import failed: %w", err)
		}
		logger.Info("author import complete", "authors", total)
		return nil
	},
}

func init() {
	importCmd.AddCommand(importPoemsCmd)
	importCmd.AddCommand(importAuthorsCmd)
	rootCmd.AddCommand(importCmd)
}
