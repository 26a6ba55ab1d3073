// Package docxio writes assembled documents as .docx and reads .docx and
// .pdf files back for validation.
package docxio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrUnreadableSource wraps any failure to open or parse an input file.
	ErrUnreadableSource = errors.New("unreadable source")
	// ErrIOFailure wraps failures writing the output document.
	ErrIOFailure = errors.New("output write failed")
)

// spool copies r to a temp file, since the docx and pdf readers need random
// access. The caller removes the file with the returned cleanup.
func spool(r io.Reader, pattern string) (*os.File, int64, func(), error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	size, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, nil, fmt.Errorf("seek temp file: %w", err)
	}
	return tmp, size, cleanup, nil
}
