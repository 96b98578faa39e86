// Package embeddings turns verse text into fixed-width vectors via an
// external embedding model served by Ollama.
package embeddings

import "context"

// Embedder generates vector embeddings from text. Implementations must
// return exactly one vector per input, in input order.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector width.
	Dimensions() int
}
