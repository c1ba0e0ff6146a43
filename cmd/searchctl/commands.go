package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/storefront/backend/internal/infrastructure/catalog"
	"github.com/storefront/backend/internal/usecase"
	"github.com/storefront/backend/internal/vocabulary"
)

var (
	relatedLimit int

	searchCmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Rank the catalog against a query",
		Args:  cobra.ArbitraryArgs,
		RunE:  runSearch,
	}

	relatedCmd = &cobra.Command{
		Use:   "related <product-id>",
		Short: "List products related to a product",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelated,
	}

	classifyCmd = &cobra.Command{
		Use:   "classify <text>",
		Short: "Show how text is tokenized and classified",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runClassify,
	}
)

func init() {
	relatedCmd.Flags().IntVar(&relatedLimit, "limit", 0, "Maximum related products (0 uses the default)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, engine, err := newCatalogService(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := svc.Search(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runRelated(cmd *cobra.Command, args []string) error {
	svc, engine, err := newCatalogService(cmd)
	if err != nil {
		return err
	}
	defer engine.Close()

	result, err := svc.Related(cmd.Context(), args[0], relatedLimit)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runClassify(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	return writeJSON(cmd.OutOrStdout(), engine.AnalyzeQuery(strings.Join(args, " ")))
}

func newLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(logger)
}

func newEngine() (*usecase.SearchEngine, error) {
	vocab, err := vocabulary.Default()
	if vocabularyPath != "" {
		vocab, err = vocabulary.Load(vocabularyPath)
	}
	if err != nil {
		return nil, err
	}

	return usecase.NewSearchEngine(vocab, usecase.EngineConfig{EnableDebugLogging: debug},
		usecase.WithLogger(newLogger()))
}

func newCatalogService(cmd *cobra.Command) (*usecase.CatalogService, *usecase.SearchEngine, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger()
	svc := usecase.NewCatalogService(catalog.NewFileSource(catalogPath, logger), engine, logger)
	if _, err := svc.Reload(cmd.Context()); err != nil {
		engine.Close()
		return nil, nil, fmt.Errorf("failed to load catalog %s: %w", catalogPath, err)
	}
	return svc, engine, nil
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
