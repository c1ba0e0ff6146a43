package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	catalogPath    string
	vocabularyPath string
	debug          bool

	rootCmd = &cobra.Command{
		Use:   "searchctl",
		Short: "Query a product catalog snapshot from the command line",
		Long: `searchctl runs the storefront search engine against a catalog file,
for tuning tag weights and vocabularies without starting the server.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "./data/catalog.json", "Catalog snapshot file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&vocabularyPath, "vocabulary", "", "Vocabulary YAML file (defaults to the embedded vocabulary)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	rootCmd.AddCommand(searchCmd, relatedCmd, classifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
