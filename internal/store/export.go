package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ExportMediaType is the media type offered with the exported document.
const ExportMediaType = "text/yaml"

// Exporter receives the exact text of every committed save.
type Exporter interface {
	Export(ctx context.Context, name string, text []byte) error
}

// FileExporter writes exported documents into a directory.
type FileExporter struct {
	dir string
}

var _ Exporter = (*FileExporter)(nil)

// NewFileExporter builds an exporter writing into dir.
func NewFileExporter(dir string) (*FileExporter, error) {
	if dir == "" {
		return nil, eris.New("export directory is required")
	}
	return &FileExporter{dir: dir}, nil
}

// Path returns where an export named name is written.
func (e *FileExporter) Path(name string) string {
	return filepath.Join(e.dir, filepath.Base(name))
}

// Export writes text through a temporary file and renames it into place so
// readers never observe a partial document.
func (e *FileExporter) Export(ctx context.Context, name string, text []byte) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "exporting document")
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return eris.Wrapf(err, "creating export directory %s", e.dir)
	}

	tmp, err := os.CreateTemp(e.dir, ".export-*")
	if err != nil {
		return eris.Wrap(err, "creating temporary export file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "writing export file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "closing export file")
	}

	if err := os.Rename(tmpName, e.Path(name)); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "moving export file into place")
	}

	return nil
}
