// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"fmt"
	"path/filepath"

	"github.com/bartekus/vetgate/internal/projection"
)

// Writer persists a copy of the final document.
type Writer struct {
	path string
}

// NewWriter returns a writer for path. An empty path disables writing.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write stores doc atomically. It is a no-op when the writer is disabled.
func (w *Writer) Write(doc []byte) error {
	if w == nil || w.path == "" {
		return nil
	}
	path, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolving report path: %w", err)
	}
	if err := projection.AtomicWrite(path, doc, 0o644); err != nil {
		return fmt.Errorf("writing report copy: %w", err)
	}
	return nil
}
