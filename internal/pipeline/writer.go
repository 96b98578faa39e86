package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/escrituras/versevec/internal/corpus"
	"github.com/escrituras/versevec/internal/npy"
)

// ErrRowMismatch indicates the vector array and the verse sequence
// disagree in length.
var ErrRowMismatch = errors.New("vector row count does not match verse count")

// MetadataEntry maps one embedding row back to its verse.
type MetadataEntry struct {
	VerseTitle string `json:"verse_title"`
}

// Writer persists pipeline output into a directory. Each artifact is
// written to a temp file and renamed into place, so a crash mid-write
// never leaves a half-written artifact under its final name.
type Writer struct {
	dir  string
	cols int
	out  io.Writer
}

// NewWriter creates a writer targeting dir for vectors of width cols.
// Size reports go to out.
func NewWriter(dir string, cols int, out io.Writer) *Writer {
	return &Writer{dir: dir, cols: cols, out: out}
}

// Write persists the vector array and the metadata index, then reports
// the byte size of each artifact and their sum.
func (w *Writer) Write(vectors [][]float32, verses []corpus.Verse) error {
	if len(vectors) != len(verses) {
		return fmt.Errorf("%w: %d vectors, %d verses", ErrRowMismatch, len(vectors), len(verses))
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	embPath := filepath.Join(w.dir, EmbeddingsFile)
	embSize, err := w.writeEmbeddings(embPath, vectors)
	if err != nil {
		return fmt.Errorf("writing %s: %w", embPath, err)
	}
	fmt.Fprintf(w.out, "Saved embeddings to %s (%.1f MB)\n", embPath, mb(embSize))

	metaPath := filepath.Join(w.dir, MetadataFile)
	metaSize, err := w.writeMetadata(metaPath, verses)
	if err != nil {
		return fmt.Errorf("writing %s: %w", metaPath, err)
	}
	fmt.Fprintf(w.out, "Saved metadata to %s (%.1f MB)\n", metaPath, mb(metaSize))

	fmt.Fprintf(w.out, "Total size: %.1f MB\n", mb(embSize+metaSize))
	return nil
}

func (w *Writer) writeEmbeddings(path string, vectors [][]float32) (int64, error) {
	t, err := renameio.TempFile("", path)
	if err != nil {
		return 0, err
	}
	defer t.Cleanup()

	if err := npy.Write(t, vectors, w.cols); err != nil {
		return 0, err
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return 0, err
	}
	return fileSize(path)
}

func (w *Writer) writeMetadata(path string, verses []corpus.Verse) (int64, error) {
	entries := make([]MetadataEntry, len(verses))
	for i, v := range verses {
		entries[i] = MetadataEntry{VerseTitle: v.VerseTitle}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return 0, err
	}
	if err := renameio.WriteFile(path, data, 0644); err != nil {
		return 0, err
	}
	return fileSize(path)
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func mb(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
