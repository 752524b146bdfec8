package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyuns-96/sanity-log-parser/internal/config"
	"github.com/kyuns-96/sanity-log-parser/internal/embed"
	"github.com/kyuns-96/sanity-log-parser/internal/embed/gemini"
	"github.com/kyuns-96/sanity-log-parser/internal/embed/onnx"
	"github.com/kyuns-96/sanity-log-parser/internal/embed/openai"
	"github.com/kyuns-96/sanity-log-parser/internal/pipeline"
	"github.com/kyuns-96/sanity-log-parser/internal/results"
	"github.com/kyuns-96/sanity-log-parser/internal/view"
)

var (
	analyzeAI               string
	analyzeOut              string
	analyzeRuleConfig       string
	analyzeEmbeddingsConfig string
	analyzeMaxLogs          int
	analyzeJSONIndent       int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <report-file>",
	Short: "Parse and cluster one sanity report",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAI, "ai", "auto", "AI merge stage: auto, on, or off")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "results.json", "results file to write")
	analyzeCmd.Flags().StringVar(&analyzeRuleConfig, "rule-config", "", "rule clustering config JSON (strictly validated)")
	analyzeCmd.Flags().StringVar(&analyzeEmbeddingsConfig, "embeddings-config", "", "embeddings backend config JSON")
	analyzeCmd.Flags().IntVar(&analyzeMaxLogs, "max-logs", 0, "cap original logs kept per group (0 = all)")
	analyzeCmd.Flags().IntVar(&analyzeJSONIndent, "json-indent", 2, "indentation of the results file (0 = compact)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch analyzeAI {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("--ai must be auto, on, or off, got %q", analyzeAI)
	}

	// A bad rule config aborts the run: silently ignoring a mistyped eps or
	// weight would produce confidently wrong clusters.
	ruleCfg := config.DefaultRuleClusteringConfig()
	if analyzeRuleConfig != "" {
		loaded, err := config.LoadRuleClusteringConfig(analyzeRuleConfig)
		if err != nil {
			return err
		}
		ruleCfg = loaded
	}

	embCfg := config.LoadEmbeddingsConfig(config.ResolveEmbeddingsConfigPath(analyzeEmbeddingsConfig))
	for _, w := range embCfg.Warnings {
		slog.Warn(w)
	}

	opts := pipeline.Options{
		ReportPath: args[0],
		RuleConfig: ruleCfg,
		AIEnabled:  analyzeAI != "off",
		Backend:    embCfg.Backend,
		BatchSize:  embCfg.BatchSize,
		MaxLogs:    analyzeMaxLogs,
		Warnings:   embCfg.Warnings,
	}

	if opts.AIEnabled {
		embedder, err := newEmbedder(ctx, embCfg)
		switch {
		case err == nil:
			defer embedder.Close()
			opts.Embedder = embedder
		case analyzeAI == "on":
			// The caller demanded AI; an unusable backend is fatal.
			return fmt.Errorf("embedding backend unavailable: %w", err)
		default:
			// auto: degrade rather than abort, the logic groups are still useful.
			slog.Warn("embedding backend unavailable, continuing without AI merge", "error", err)
			opts.AIEnabled = false
			opts.Warnings = append(opts.Warnings, fmt.Sprintf("embedding backend unavailable: %v", err))
		}
	}

	doc, err := pipeline.Run(ctx, opts)
	if err != nil {
		return err
	}

	if err := results.Write(analyzeOut, doc, analyzeJSONIndent); err != nil {
		return err
	}
	slog.Info("results written", "file", analyzeOut, "groups", len(doc.Groups))

	if !quiet {
		view.Render(os.Stdout, doc, 20)
	}
	return nil
}

// newEmbedder builds the embedding backend the config selects.
func newEmbedder(ctx context.Context, cfg config.EmbeddingsConfig) (embed.Embedder, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		return openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.APIKey), nil
	case config.BackendGemini:
		return gemini.New(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	default:
		return onnx.New(cfg.Local.ModelPath, cfg.Local.VocabPath)
	}
}
