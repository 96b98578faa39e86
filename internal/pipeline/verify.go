package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/escrituras/versevec/internal/npy"
)

// Report describes the artifacts found in an output directory.
type Report struct {
	Rows    int
	Cols    int
	Entries int
}

// Verify reloads both artifacts from dir and checks they agree: equal
// row and entry counts, and every row at the declared width. This is the
// same consistency check the consuming application performs at load
// time, run here right after generation.
func Verify(dir string, wantCols int) (*Report, error) {
	embPath := filepath.Join(dir, EmbeddingsFile)
	f, err := os.Open(embPath)
	if err != nil {
		return nil, fmt.Errorf("opening embeddings: %w", err)
	}
	defer f.Close()

	rows, cols, err := npy.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", embPath, err)
	}

	metaPath := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	var entries []MetadataEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", metaPath, err)
	}

	if len(rows) != len(entries) {
		return nil, fmt.Errorf("%w: %d embedding rows, %d metadata entries", ErrRowMismatch, len(rows), len(entries))
	}
	if cols != wantCols {
		return nil, fmt.Errorf("embedding width is %d, want %d", cols, wantCols)
	}

	return &Report{Rows: len(rows), Cols: cols, Entries: len(entries)}, nil
}
