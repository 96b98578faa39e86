package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/escrituras/versevec/internal/config"
	"github.com/escrituras/versevec/internal/corpus"
	"github.com/escrituras/versevec/internal/embeddings"
	"github.com/escrituras/versevec/internal/pipeline"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	buildCorpus := buildCmd.String("corpus", "", "Corpus file path (overrides config)")
	buildOut := buildCmd.String("out", "", "Output directory (overrides config)")
	buildNoCache := buildCmd.Bool("no-cache", false, "Bypass the embedding cache")

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "build":
			buildCmd.Parse(os.Args[2:])
			return runBuild(*buildCorpus, *buildOut, *buildNoCache)
		case "stats":
			return runStats()
		case "verify":
			return runVerify()
		case "config":
			return runConfigInit()
		case "version", "-v", "--version":
			fmt.Printf("versevec %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		case "help", "-h", "--help":
			printUsage()
			return nil
		default:
			printUsage()
			return fmt.Errorf("unknown command %q", os.Args[1])
		}
	}

	// Default: run the build pipeline
	return runBuild("", "", false)
}

func printUsage() {
	fmt.Println(`versevec - Scripture embedding index generator

Usage:
  versevec             Build the embedding index
  versevec build       Build the embedding index
  versevec stats       Show corpus composition
  versevec verify      Check the generated artifacts agree
  versevec config      Initialize config file
  versevec version     Show version info
  versevec help        Show this help

Build options:
  -corpus string       Corpus file path (overrides config)
  -out string          Output directory (overrides config)
  -no-cache            Bypass the embedding cache

Examples:
  versevec build                               # Embed the configured corpus
  versevec build -corpus verses.json -out out  # One-off corpus and output dir
  versevec verify                              # Recheck artifact alignment
  versevec stats                               # Volumes, books and verse counts`)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runBuild(corpusOverride, outOverride string, noCache bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if corpusOverride != "" {
		cfg.Corpus.Path = corpusOverride
	}
	if outOverride != "" {
		cfg.Output.Dir = outOverride
	}

	fmt.Printf("Loading scriptures from %s...\n", cfg.Corpus.Path)
	verses, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d verses\n", len(verses))

	embedder, cleanup, err := setupEmbedder(cfg, noCache)
	if err != nil {
		return err
	}
	defer cleanup()

	builder := pipeline.NewBuilder(embedder, cfg.Embeddings.BatchSize)
	builder.SetProgressReporter(&consoleProgressReporter{})

	ctx := context.Background()
	vectors, err := builder.Run(ctx, verses)
	if err != nil {
		return err
	}

	writer := pipeline.NewWriter(cfg.Output.Dir, cfg.Embeddings.Dimensions, os.Stdout)
	if err := writer.Write(vectors, verses); err != nil {
		return err
	}

	fmt.Println("\nDone!")
	return nil
}

// setupEmbedder builds the embedding stack: Ollama, wrapped in the
// SQLite cache unless disabled. The returned cleanup closes the cache.
func setupEmbedder(cfg *config.Config, noCache bool) (embeddings.Embedder, func(), error) {
	ollama := embeddings.NewOllamaEmbedder(
		cfg.Embeddings.OllamaURL,
		cfg.Embeddings.Model,
		cfg.Embeddings.Dimensions,
	)

	// Probe connectivity before committing to a long run; model pulls
	// and server state are Ollama's problem, reachability is ours.
	if _, err := ollama.Embed(context.Background(), "test"); err != nil {
		return nil, nil, fmt.Errorf("embedding model unavailable: %w", err)
	}

	if noCache || !cfg.Embeddings.Cache {
		return ollama, func() {}, nil
	}

	cachePath, err := config.CachePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: embedding cache unavailable: %v\n", err)
		return ollama, func() {}, nil
	}
	cached, err := embeddings.NewCachedEmbedder(ollama, cfg.Embeddings.Model, cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: embedding cache unavailable: %v\n", err)
		return ollama, func() {}, nil
	}
	return cached, func() { cached.Close() }, nil
}

func runStats() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	verses, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return err
	}

	idx := corpus.BuildIndex(verses)
	fmt.Printf("Corpus: %s\n", cfg.Corpus.Path)
	fmt.Printf("  Verses:  %d\n", idx.VerseCount)
	fmt.Printf("  Volumes: %d\n", len(idx.Volumes))
	fmt.Printf("  Books:   %d\n", idx.BookCount())
	for _, vol := range idx.Volumes {
		books := idx.BooksByVolume[vol]
		chapters := 0
		for _, b := range books {
			chapters += len(idx.ChaptersByBook[b])
		}
		fmt.Printf("\n%s: %d books, %d chapters\n", vol, len(books), chapters)
	}
	return nil
}

func runVerify() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report, err := pipeline.Verify(cfg.Output.Dir, cfg.Embeddings.Dimensions)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", cfg.Output.Dir, err)
	}

	fmt.Printf("Artifacts in %s agree:\n", cfg.Output.Dir)
	fmt.Printf("  Embeddings: (%d, %d)\n", report.Rows, report.Cols)
	fmt.Printf("  Metadata:   %d entries\n", report.Entries)
	return nil
}

func runConfigInit() error {
	cfg := config.Default()
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	configPath, _ := config.ConfigPath()
	fmt.Printf("Config written to: %s\n", configPath)
	return nil
}

// consoleProgressReporter prints an embedding progress bar to stdout.
type consoleProgressReporter struct {
	total int
}

func (r *consoleProgressReporter) OnStart(total int) {
	r.total = total
	fmt.Printf("\nGenerating embeddings for %d verses...\n", total)
}

func (r *consoleProgressReporter) OnProgress(done, total int) {
	pct := 100 * float64(done) / float64(total)
	filled := int(pct) / 2
	fmt.Printf("\r[%s%s] %.1f%% (%d/%d)",
		strings.Repeat("=", filled), strings.Repeat(" ", 50-filled), pct, done, total)
}

func (r *consoleProgressReporter) OnComplete(total int) {
	if total > 0 {
		r.OnProgress(total, total)
	}
	fmt.Println()
}
