package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/excerpt/internal/models"
	"github.com/xhad/excerpt/internal/types"
	"github.com/xhad/excerpt/pkg/cache"
	"github.com/xhad/excerpt/pkg/extract"
	"github.com/xhad/excerpt/pkg/llm"
	"github.com/xhad/excerpt/pkg/loader"
	"github.com/xhad/excerpt/pkg/processor"
	"github.com/xhad/excerpt/pkg/relevance"
	"github.com/xhad/excerpt/pkg/schema"
)

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <schema-file>",
		Short: "List the query keys derived from a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := readSchema(args[0])
			if err != nil {
				return err
			}
			for _, key := range schema.ExtractKeys(node) {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func chunksCmd(opts *options) *cobra.Command {
	var size, maxChunks int
	cmd := &cobra.Command{
		Use:   "chunks <source>",
		Short: "Split a document into the chunks the rankers score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			if size == 0 {
				size = opts.config.Relevance.ChunkSize
			}
			if maxChunks == 0 {
				maxChunks = opts.config.Relevance.MaxChunks
			}

			p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: size, MaxChunks: maxChunks})
			out := cmd.OutOrStdout()
			for i, chunk := range p.SplitIntoChunks(doc.Content, size, maxChunks) {
				fmt.Fprintf(out, "%s\n%s\n\n", color.CyanString("[%d] %d chars", i+1, len([]rune(chunk))), chunk)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "Maximum chunk size in characters")
	cmd.Flags().IntVar(&maxChunks, "max", 0, "Maximum number of chunks")
	return cmd
}

func selectCmd(opts *options) *cobra.Command {
	var schemaPath, algorithms string
	var threshold float64
	cmd := &cobra.Command{
		Use:   "select <source>",
		Short: "Print the excerpts of a document relevant to a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if algorithms != "" {
				opts.config.Relevance.Algorithms = algorithms
			}
			if threshold > 0 {
				opts.config.Relevance.Threshold = threshold
			}
			if _, err := relevance.ParseAlgorithmSet(opts.config.Relevance.Algorithms); err != nil {
				return err
			}

			node, _, err := readSchema(schemaPath)
			if err != nil {
				return err
			}
			doc, err := loadDocument(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			ranker, err := buildRanker(opts)
			if err != nil {
				return err
			}

			spinner := getSpinner("🔍 Ranking chunks...")
			outcome := ranker.Rank(cmd.Context(), doc.Content, schema.Skeleton(node))
			spinner.Finish()
			fmt.Fprint(os.Stderr, "\r")

			fmt.Fprintln(cmd.OutOrStdout(), outcome.Text())
			printStats(outcome, len([]rune(doc.Content)))
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to the extraction schema (JSON or YAML)")
	cmd.Flags().StringVar(&algorithms, "algorithms", "", "Local scorers: jaccard, manhattan or both")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum score for a match")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func extractCmd(opts *options) *cobra.Command {
	var schemaPath, label string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "extract <source>...",
		Short: "Fill a schema from one or more documents with the configured model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, raw, err := readSchema(schemaPath)
			if err != nil {
				return err
			}

			ranker, err := buildRanker(opts)
			if err != nil {
				return err
			}
			chatEngine, err := llm.NewWithConfig(opts.config.LLM.ChatConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize chat engine: %v", err)
			}

			svcConfig := extract.ServiceConfig{
				MinDocumentLength: opts.config.Relevance.MinDocumentLength,
				CacheTTL:          opts.config.Cache.TTL,
				Ranker:            ranker,
				Extractor:         chatEngine,
			}
			if counter, err := llm.NewTokenCounter(llm.DefaultEncoding); err == nil {
				svcConfig.TokenCounter = counter
			} else {
				opts.log.Warn("Token counting disabled", "error", err)
			}
			if !noCache && !opts.config.Cache.Disabled {
				results := cache.New[models.ExtractionResult](opts.config.Cache.CacheConfig())
				results.Start(ctx)
				defer results.Stop()
				svcConfig.Cache = results
			}

			svc, err := extract.NewWithConfig(svcConfig)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			for _, source := range args {
				doc, err := loadDocument(ctx, opts, source)
				if err != nil {
					return err
				}

				spinner := getSpinner(fmt.Sprintf("🤖 Extracting %s...", doc.Title))
				result, err := svc.Extract(ctx, models.ExtractionRequest{
					Label:    label,
					Schema:   raw,
					Document: doc,
				})
				spinner.Finish()
				fmt.Fprint(os.Stderr, "\r")
				if err != nil {
					return fmt.Errorf("failed to extract %s: %w", source, err)
				}

				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("failed to write result: %w", err)
				}
				printReduction(result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to the extraction schema (JSON or YAML)")
	cmd.Flags().StringVar(&label, "label", "documento", "Document type passed to the model")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the result cache")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func readSchema(path string) (*schema.Node, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read schema: %w", err)
	}
	node, err := schema.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	return node, raw, nil
}

func loadDocument(ctx context.Context, opts *options, source string) (models.Document, error) {
	cfg := opts.config.Loader.LoaderConfig()
	cfg.OnProgress = func(source string) {
		opts.log.Debug("Loading document", "source", source)
	}
	doc, err := loader.NewWithConfig(cfg).Load(ctx, source)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to load %s: %w", source, err)
	}
	return doc, nil
}

func buildRanker(opts *options) (relevance.Ranker, error) {
	var embedder types.Embedder
	if strings.EqualFold(opts.config.Relevance.Strategy, relevance.StrategyEmbedding) {
		emb, err := llm.NewEmbedderWithConfig(opts.config.Embedder.EmbedderConfig())
		if err != nil {
			// The ranker reports the missing backend as a degraded outcome.
			opts.log.Warn("Embedding backend unavailable", "error", err)
		} else {
			embedder = emb
		}
	}
	return relevance.NewRanker(
		opts.config.Relevance.Strategy,
		opts.config.Relevance.RankerConfig(),
		opts.config.Embedding.RankerConfig(),
		embedder,
	)
}
