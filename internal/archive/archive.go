// Package archive expands uploaded ZIP files into source artifacts.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/smartsdlc/sdlc/internal/models"
)

// ErrNoPythonFiles is returned when a valid archive contains nothing to analyze.
var ErrNoPythonFiles = errors.New("no Python files found in the ZIP archive")

// ExtractArtifacts reads a ZIP from memory and returns one artifact per
// contained .py file, ordered by path. Entries larger than maxFileSize
// are rejected rather than silently skipped, since a truncated file would
// produce misleading analysis.
func ExtractArtifacts(data []byte, maxFileSize int64) ([]models.SourceArtifact, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid or corrupted ZIP file: %w", err)
	}

	var artifacts []models.SourceArtifact
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".py") {
			continue
		}
		// Resource forks and editor droppings inside archives.
		base := path.Base(f.Name)
		if strings.HasPrefix(f.Name, "__MACOSX/") || strings.HasPrefix(base, "._") {
			continue
		}
		if maxFileSize > 0 && f.FileInfo().Size() > maxFileSize {
			return nil, fmt.Errorf("file %s exceeds the %d byte size limit", f.Name, maxFileSize)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in archive: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s in archive: %w", f.Name, err)
		}

		artifacts = append(artifacts, models.NewSourceArtifact(f.Name, string(content)))
	}

	if len(artifacts) == 0 {
		return nil, ErrNoPythonFiles
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].FileName < artifacts[j].FileName
	})
	return artifacts, nil
}

// IsZip reports whether the file name looks like a ZIP upload.
func IsZip(fileName string) bool {
	return strings.EqualFold(path.Ext(fileName), ".zip")
}
