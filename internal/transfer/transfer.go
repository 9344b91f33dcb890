// Package transfer reads and writes the JSON import/export documents.
package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/cschnabel/scorekeeper/internal/model"
)

var ErrInvalidFormat = errors.New("invalid format: expected a JSON array of matches")

const filenameTimeLayout = "20060102150405"

// ExportFilename is scorekeeper_<YYYYMMDDHHMMSS>.json for t.
func ExportFilename(t time.Time) string {
	return "scorekeeper_" + t.Format(filenameTimeLayout) + ".json"
}

// Export writes the list as an indented JSON array.
func Export(w io.Writer, matches []model.Match) error {
	if matches == nil {
		matches = []model.Match{}
	}
	out, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	out = append(out, '\n')
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// WriteExportFile writes an export into dir and returns the file path.
func WriteExportFile(dir string, now time.Time, matches []model.Match) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFilename(now))

	var buf bytes.Buffer
	if err := Export(&buf, matches); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Decode reads an import document. Anything but a JSON array whose elements
// decode as matches is ErrInvalidFormat. Elements are not validated further.
func Decode(r io.Reader) ([]model.Match, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidFormat
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	matches := make([]model.Match, 0, len(elems))
	for i, elem := range elems {
		var m model.Match
		if err := json.Unmarshal(elem, &m); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrInvalidFormat, i, err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DecodeFile is Decode over the file at path.
func DecodeFile(path string) ([]model.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
