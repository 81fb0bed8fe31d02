package cmd

import (
	"fmt"

	"verseatlas/internal/config"
	"verseatlas/internal/enrich"
	"verseatlas/internal/geocode"
	"verseatlas/internal/llm"
	"verseatlas/internal/store"

	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich {poems|authors}",
	Short: "Extract, geocode, and link locations for eligible records",
	Long: `Repeatedly fetches one record that has an audio asset and no location
links yet, extracts location descriptions from its text with Gemini, geocodes
new descriptions, and commits the resulting locations and links as one
transaction per record. Stops when no eligible record remains.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"poems", "authors"},
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

		llmClient, err := llm.NewClient(cfg.Gemini)
		if err != nil {
			return err
		}
		geocoder, err := geocode.NewClient(cfg.Geocoding)
		if err != nil {
			return err
		}

		var target enrich.Target
		switch args[0] {
		case "poems":
			target = enrich.NewPoemTarget(st, llmClient)
		case "authors":
			target = enrich.NewAuthorTarget(st, llmClient)
		default:
			return fmt.Errorf("unknown target %q (expected poems or authors)", args[0])
		}

		return enrich.New(geocoder).Run(ctx, target)
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
