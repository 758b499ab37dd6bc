// Package audit keeps a copy of each sent request and marks failed sends.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// RecordLayout names archives MM.DD.YYYY_HHMM; two sends in the same
	// minute share a name and the later one wins.
	RecordLayout = "01.02.2006_1504"
	FailFileName = "fail.txt"
)

// Writer stores audit files in a single directory.
type Writer struct {
	fs  afero.Fs
	dir string
	sep string
}

func NewWriter(fs afero.Fs, dir, sep string) *Writer {
	return &Writer{fs: fs, dir: dir, sep: sep}
}

// RecordPath returns the archive path for a send at the given time.
func (w *Writer) RecordPath(at time.Time) string {
	return w.join("email_data_" + at.Format(RecordLayout) + ".txt")
}

// FailPath returns the location of the failure sentinel.
func (w *Writer) FailPath() string {
	return w.join(FailFileName)
}

// Record writes raw verbatim to the archive for at.
func (w *Writer) Record(raw []byte, at time.Time) (string, error) {
	path := w.RecordPath(at)
	if err := afero.WriteFile(w.fs, path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write audit record: %w", err)
	}
	return path, nil
}

// Fail leaves an empty fail.txt behind, truncating any previous one.
func (w *Writer) Fail() error {
	f, err := w.fs.Create(w.FailPath())
	if err != nil {
		return fmt.Errorf("write failure sentinel: %w", err)
	}
	return f.Close()
}

func (w *Writer) join(name string) string {
	return strings.TrimRight(w.dir, w.sep) + w.sep + name
}
