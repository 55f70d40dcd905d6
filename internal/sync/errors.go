package sync

import "fmt"

// PrerequisiteError indicates a required condition (network posture, active
// source, accepted credentials) was not met. Fails fast before any catalog
// fetch, no retry.
type PrerequisiteError struct {
	Err error
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("sync prerequisite not met: %v", e.Err)
}

func (e *PrerequisiteError) Unwrap() error {
	return e.Err
}

// TransientFetchError wraps the final attempt's error after fetch retries
// are exhausted.
type TransientFetchError struct {
	Attempts int
	Err      error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates the catalog response was not a well-formed JSON
// array or an element could not be decoded. Never retried; aborts the sync.
type ParseError struct {
	Element int
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing catalog at element %d: %v", e.Element, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// PartialWriteError records that some write batches failed while others
// succeeded. Not fatal; the sync completes as a partial success.
type PartialWriteError struct {
	SuccessCount int64
	FailedCount  int64
	FirstErr     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: %d written, %d failed, first error: %v",
		e.SuccessCount, e.FailedCount, e.FirstErr)
}

func (e *PartialWriteError) Unwrap() error {
	return e.FirstErr
}

// VerificationError indicates the post-ingest row count diverged from the
// reported written count beyond tolerance. Always escalated to a full error.
type VerificationError struct {
	Expected  int64
	Actual    int64
	Tolerance int64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("row count verification failed: expected %d, found %d (tolerance %d)",
		e.Expected, e.Actual, e.Tolerance)
}
