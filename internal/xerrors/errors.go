// Package xerrors declares the typed error taxonomy shared across the
// transport, parser, validator, and store components. Callers branch on
// taxonomy kind with errors.As rather than inspecting error strings.
package xerrors

import (
	"errors"
	"fmt"
)

// ChallengeServedError reports that the remote site served an anti-bot
// challenge instead of the requested page. Retryable with bounded backoff.
type ChallengeServedError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *ChallengeServedError) Error() string {
	return fmt.Sprintf("challenge served for %s after %d attempt(s)", e.URL, e.Attempts)
}

func (e *ChallengeServedError) Unwrap() error { return e.Cause }

// ContentTooShortError reports that the extracted page body fell below the
// minimum-content threshold. Retried once in-place before escalating to a
// ChallengeServedError.
type ContentTooShortError struct {
	URL    string
	Length int
	Min    int
}

func (e *ContentTooShortError) Error() string {
	return fmt.Sprintf("content too short for %s: %d bytes (min %d)", e.URL, e.Length, e.Min)
}

// PageMissingError reports a definitive 404/not-found response. Not
// retryable; the work item is marked permanently failed.
type PageMissingError struct {
	URL        string
	StatusHint string
}

func (e *PageMissingError) Error() string {
	return fmt.Sprintf("page missing for %s: %s", e.URL, e.StatusHint)
}

// TransportFailedError wraps an unrecognized transport/browser failure.
// Batch-fatal: the orchestrator discards the whole in-flight batch and
// leaves its items pending for the next invocation.
type TransportFailedError struct {
	URL   string
	Cause error
}

func (e *TransportFailedError) Error() string {
	return fmt.Sprintf("transport failed for %s: %v", e.URL, e.Cause)
}

func (e *TransportFailedError) Unwrap() error { return e.Cause }

// ParseError reports a parser that could not produce a typed record from
// the given HTML. Not retryable; the work item is quarantined and marked failed.
type ParseError struct {
	Stage   string
	Context string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s (%s): %v", e.Stage, e.Context, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError reports a hard-reject from the validation gate. Not
// retryable; the record is quarantined and the item is marked failed.
type ValidationError struct {
	EntityType string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation rejected %s: %s", e.EntityType, e.Reason)
}

// PersistError wraps a store write failure. Not retryable; the item is
// marked failed and logged.
type PersistError struct {
	Operation string
	Cause     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist error during %s: %v", e.Operation, e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }

// TransportUnavailableError reports that the host cannot satisfy the
// transport's visibility requirement (e.g. no display for a non-headless
// browser). Raised by Start(), and by Fetch() only when it is called
// before Start().
type TransportUnavailableError struct {
	Reason string
	Cause  error
}

func (e *TransportUnavailableError) Error() string {
	return fmt.Sprintf("transport unavailable: %s", e.Reason)
}

func (e *TransportUnavailableError) Unwrap() error { return e.Cause }

// IsPageMissing reports whether err is (or wraps) a PageMissingError.
func IsPageMissing(err error) bool {
	var target *PageMissingError
	return errors.As(err, &target)
}

// IsChallengeServed reports whether err is (or wraps) a ChallengeServedError.
func IsChallengeServed(err error) bool {
	var target *ChallengeServedError
	return errors.As(err, &target)
}

// IsTransportFailed reports whether err is (or wraps) a TransportFailedError.
func IsTransportFailed(err error) bool {
	var target *TransportFailedError
	return errors.As(err, &target)
}
