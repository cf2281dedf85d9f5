package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrToolUnavailable means the downloader is missing and could not be installed
	ErrToolUnavailable = errors.New("downloader tool unavailable")

	// ErrMetadata means the metadata query failed or returned malformed output
	ErrMetadata = errors.New("metadata query failed")

	// ErrDownloadFailure means the download invocation exited non-zero
	ErrDownloadFailure = errors.New("download failed")

	// ErrSourceList means the batch source list could not be read
	ErrSourceList = errors.New("source list unreadable")

	// ErrCancelled means the caller cancelled an active download
	ErrCancelled = errors.New("download cancelled")
)

// MetadataError describes a failed metadata query
type MetadataError struct {
	Source string
	Err    error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata query for %s: %v", e.Source, e.Err)
}

// Unwrap lets errors.Is match both ErrMetadata and the cause
func (e *MetadataError) Unwrap() []error {
	return []error{ErrMetadata, e.Err}
}

// SourceListError describes a source list that could not be opened or read
type SourceListError struct {
	Path string
	Err  error
}

func (e *SourceListError) Error() string {
	return fmt.Sprintf("source list %s: %v", e.Path, e.Err)
}

func (e *SourceListError) Unwrap() []error {
	return []error{ErrSourceList, e.Err}
}

// DownloadError carries the exit status of a failed download.
// The tool does not tell network errors from extractor errors, so neither do we.
type DownloadError struct {
	Source   string
	ExitCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s exited with status %d", e.Source, e.ExitCode)
}

func (e *DownloadError) Unwrap() error {
	return ErrDownloadFailure
}

var (
	// ErrNotFound means no history record has the requested id
	ErrNotFound = errors.New("download not found")

	// ErrInvalidRequest means a download request failed validation
	ErrInvalidRequest = errors.New("invalid download request")

	// ErrInvalidState means the record's status does not allow the operation
	ErrInvalidState = errors.New("invalid download state")
)
