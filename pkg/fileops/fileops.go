package fileops

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// FailureReason categorizes why a file access operation failed. The append
// tool surfaces these reasons verbatim inside its structured error payloads.
type FailureReason int

const (
	// ReasonNotFound indicates the file does not exist.
	ReasonNotFound FailureReason = iota
	// ReasonPermissionDenied indicates the file exists but cannot be opened.
	ReasonPermissionDenied
	// ReasonNotAFile indicates the path exists but is a directory or other
	// non-regular file.
	ReasonNotAFile
	// ReasonEncoding indicates the file content is not valid UTF-8 text.
	ReasonEncoding
	// ReasonUnknown covers any other I/O failure.
	ReasonUnknown
)

// String returns a human-readable description of the failure reason.
func (r FailureReason) String() string {
	switch r {
	case ReasonNotFound:
		return "file does not exist"
	case ReasonPermissionDenied:
		return "permission denied"
	case ReasonNotAFile:
		return "not a regular file"
	case ReasonEncoding:
		return "not valid UTF-8 text"
	default:
		return "unknown error"
	}
}

// AccessError is returned by ReadText when a file cannot be read as text.
// It carries the path, a typed reason, and the underlying error (if any).
type AccessError struct {
	Path   string
	Reason FailureReason
	Err    error
}

// Error implements the error interface.
func (e *AccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *AccessError) Unwrap() error { return e.Err }

// ReasonOf extracts the typed failure reason from an error returned by
// ReadText. It returns ReasonUnknown for foreign errors.
func ReasonOf(err error) FailureReason {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ReasonUnknown
}

// Exists reports whether path exists on disk. It does not distinguish
// between files and directories; callers needing that distinction should
// use ReadText and inspect the failure reason.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadText reads the full content of path as UTF-8 text.
//
// Failures are reported as *AccessError with one of the typed reasons:
//   - ReasonNotFound: the file does not exist
//   - ReasonPermissionDenied: the file cannot be opened
//   - ReasonNotAFile: the path is a directory or other non-regular file
//   - ReasonEncoding: the content is not valid UTF-8
func ReadText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &AccessError{Path: path, Reason: ReasonNotFound, Err: err}
		}
		if os.IsPermission(err) {
			return "", &AccessError{Path: path, Reason: ReasonPermissionDenied, Err: err}
		}
		return "", &AccessError{Path: path, Reason: ReasonUnknown, Err: err}
	}

	if !info.Mode().IsRegular() {
		return "", &AccessError{Path: path, Reason: ReasonNotAFile}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return "", &AccessError{Path: path, Reason: ReasonPermissionDenied, Err: err}
		}
		return "", &AccessError{Path: path, Reason: ReasonUnknown, Err: err}
	}

	if !utf8.Valid(data) {
		return "", &AccessError{Path: path, Reason: ReasonEncoding}
	}

	return string(data), nil
}

// OSAccessor is the production file accessor backed by the real filesystem.
// It satisfies the accessor interfaces declared by consuming packages.
type OSAccessor struct{}

// Exists reports whether path exists.
func (OSAccessor) Exists(path string) bool { return Exists(path) }

// ReadText reads path as UTF-8 text.
func (OSAccessor) ReadText(path string) (string, error) { return ReadText(path) }
