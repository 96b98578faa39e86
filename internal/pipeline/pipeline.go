// Package pipeline runs the corpus-to-artifact embedding batch pipeline:
// verse records in, a .npy vector array and a row-aligned metadata index
// out.
package pipeline

import (
	"context"
	"fmt"

	"github.com/escrituras/versevec/internal/corpus"
	"github.com/escrituras/versevec/internal/embeddings"
)

// Artifact file names inside the output directory.
const (
	EmbeddingsFile = "scripture_embeddings.npy"
	MetadataFile   = "scripture_metadata.json"
)

// progressStep is how many processed verses separate two progress
// reports. Completion is always reported.
const progressStep = 1000

// ProgressReporter receives progress updates while embedding.
type ProgressReporter interface {
	OnStart(total int)
	OnProgress(done, total int)
	OnComplete(total int)
}

// Builder embeds a verse corpus in fixed-size batches.
type Builder struct {
	embedder  embeddings.Embedder
	batchSize int
	progress  ProgressReporter
}

// NewBuilder creates a builder that submits batchSize texts per
// embedder call.
func NewBuilder(embedder embeddings.Embedder, batchSize int) *Builder {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Builder{embedder: embedder, batchSize: batchSize}
}

// SetProgressReporter sets the progress reporter.
func (b *Builder) SetProgressReporter(pr ProgressReporter) {
	b.progress = pr
}

// Run embeds every verse and returns one vector per verse, in corpus
// order. A failed batch aborts the run; nothing is retried.
func (b *Builder) Run(ctx context.Context, verses []corpus.Verse) ([][]float32, error) {
	texts := make([]string, len(verses))
	for i, v := range verses {
		texts[i] = v.EmbedText()
	}

	total := len(texts)
	if b.progress != nil {
		b.progress.OnStart(total)
	}

	vectors := make([][]float32, 0, total)
	for start := 0; start < total; start += b.batchSize {
		end := start + b.batchSize
		if end > total {
			end = total
		}

		batch, err := b.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding verses %d-%d: %w", start, end-1, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)

		if b.progress != nil {
			// Report each crossed milestone so downstream output looks
			// the same regardless of batch size.
			for m := start - start%progressStep + progressStep; m <= end; m += progressStep {
				b.progress.OnProgress(m, total)
			}
		}
	}

	if b.progress != nil {
		b.progress.OnComplete(total)
	}
	return vectors, nil
}
