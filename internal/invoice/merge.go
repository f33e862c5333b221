package invoice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Merge concatenates PDF documents in order. The parts are written to a
// temporary directory under tmpDir, which is removed before returning.
func Merge(ctx context.Context, tmpDir string, parts ...[]byte) ([]byte, error) {
	if len(parts) == 0 {
		return nil, errors.New("nothing to merge")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(tmpDir, "switzbillz-merge-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	files := make([]string, 0, len(parts))
	for i, part := range parts {
		path := filepath.Join(dir, fmt.Sprintf("part_%d.pdf", i))
		if err := os.WriteFile(path, part, 0o600); err != nil {
			return nil, fmt.Errorf("failed to write PDF part: %w", err)
		}
		files = append(files, path)
	}

	merged := filepath.Join(dir, "merged.pdf")
	if err := pdfapi.MergeCreateFile(files, merged, false, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge PDFs: %w", err)
	}

	content, err := os.ReadFile(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to read merged PDF: %w", err)
	}
	return content, nil
}
