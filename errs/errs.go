// Package errs defines the errors returned by the csfkit codecs and merge engine.
//
// Every failure is one of three typed errors, each unwrapping to a sentinel so
// callers can branch with errors.Is and recover details with errors.As:
//
//   - *FormatError unwraps to ErrFormat (malformed or truncated CSF/STR input)
//   - *SidecarMismatchError unwraps to ErrSidecarMismatch (extra-data sidecar and
//     text disagree)
//   - *MergeInputError unwraps to ErrMergeInput (unusable merge input set)
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat indicates malformed or truncated binary or text structure.
	ErrFormat = errors.New("format error")
	// ErrSidecarMismatch indicates the extra-data sidecar does not match the text file.
	ErrSidecarMismatch = errors.New("sidecar mismatch")
	// ErrMergeInput indicates an unusable set of merge inputs.
	ErrMergeInput = errors.New("invalid merge input")

	// ErrUnsupportedCompression indicates an extra-data compression name with no codec.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	// ErrInvalidMetadata indicates a metadata entry or sidecar that cannot be parsed.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrInvalidLabel indicates a label that cannot be written to a text line.
	ErrInvalidLabel = errors.New("invalid label")
	// ErrTruncated indicates input that ends inside a header or record.
	ErrTruncated = errors.New("unexpected end of input")
)

// FormatError reports malformed input. Record is the zero-based entry index,
// Line the one-based STR line and Offset the CSF byte offset; fields that do
// not apply are -1.
type FormatError struct {
	Source string // "csf" or "str"
	Record int
	Line   int
	Offset int
	Msg    string
	Err    error
}

// NewCSFError creates a FormatError positioned in a CSF byte stream.
func NewCSFError(record, offset int, msg string, err error) *FormatError {
	return &FormatError{Source: "csf", Record: record, Line: -1, Offset: offset, Msg: msg, Err: err}
}

// NewSTRError creates a FormatError positioned in an STR text file.
func NewSTRError(record, line int, msg string, err error) *FormatError {
	return &FormatError{Source: "str", Record: record, Line: line, Offset: -1, Msg: msg, Err: err}
}

func (e *FormatError) Error() string {
	where := e.Source
	if e.Record >= 0 {
		where += fmt.Sprintf(" record %d", e.Record)
	}
	if e.Line >= 0 {
		where += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Offset >= 0 {
		where += fmt.Sprintf(" offset %d", e.Offset)
	}

	if e.Err != nil && !errors.Is(e.Err, ErrFormat) {
		return fmt.Sprintf("%s: %s: %s: %v", ErrFormat, where, e.Msg, e.Err)
	}

	return fmt.Sprintf("%s: %s: %s", ErrFormat, where, e.Msg)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}

	return []error{ErrFormat}
}

// SidecarMismatchError reports a label present on one side of the
// text/extra-data pairing but not the other.
type SidecarMismatchError struct {
	Label string
	Msg   string
}

func (e *SidecarMismatchError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: label %q: %s", ErrSidecarMismatch, e.Label, e.Msg)
	}

	return fmt.Sprintf("%s: %s", ErrSidecarMismatch, e.Msg)
}

func (e *SidecarMismatchError) Unwrap() error {
	return ErrSidecarMismatch
}

// MergeInputError reports an unusable merge input. Input is the zero-based
// input position, or -1 when the error concerns the input set as a whole.
type MergeInputError struct {
	Input int
	Label string
	Msg   string
}

func (e *MergeInputError) Error() string {
	switch {
	case e.Input >= 0 && e.Label != "":
		return fmt.Sprintf("%s: input %d: label %q: %s", ErrMergeInput, e.Input, e.Label, e.Msg)
	case e.Input >= 0:
		return fmt.Sprintf("%s: input %d: %s", ErrMergeInput, e.Input, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", ErrMergeInput, e.Msg)
	}
}

func (e *MergeInputError) Unwrap() error {
	return ErrMergeInput
}
