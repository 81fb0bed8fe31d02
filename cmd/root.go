package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "verseatlas",
	Short: "verseatlas imports poem and author records and enriches them with geocoded locations",
	Long: `verseatlas is a batch CLI with two stages:

  import  load poem/author records from JSON dump files into Postgres
  enrich  extract location descriptions from eligible records with Gemini,
          geocode them, and persist locations plus record-location links`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.verseatlas.yaml)")
}
