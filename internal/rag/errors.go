package rag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoFiles is returned when an upload contains no files.
	ErrNoFiles = errors.New("no files selected")
	// ErrNoText is returned when none of the uploaded documents contain extractable text.
	ErrNoText = errors.New("no text could be extracted from the uploaded documents")
)

// OversizeError rejects a batch in which some files exceed the per-file limit.
type OversizeError struct {
	Files []string
	Limit int64
}

func (e *OversizeError) Error() string {
	return fmt.Sprintf("files exceed the %d MB limit: %s", e.Limit/(1024*1024), strings.Join(e.Files, ", "))
}

// UnsupportedFileError rejects a batch containing files that are not PDFs.
type UnsupportedFileError struct {
	Files []string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("only PDF files are supported: %s", strings.Join(e.Files, ", "))
}

// FormatQueryError is the message shown when answering a question fails.
func FormatQueryError(err error) string {
	return fmt.Sprintf("Error while processing: `%v`", err)
}
