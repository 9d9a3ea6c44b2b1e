package transfer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrBucketNotFound is returned when the target bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrObjectNotFound is returned when no object is stored under the key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrStorageUnavailable marks transient endpoint failures. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidMetadata marks metadata that does not describe the payload.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrStreamAlreadyConsumed is returned when a body is read after exhaustion or close.
	ErrStreamAlreadyConsumed = errors.New("stream already consumed")
	// ErrVerificationFailed matches every *VerificationError.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrInvalidTransition is returned for a transfer state change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// VerificationError reports the first round-trip check that failed.
type VerificationError struct {
	Check    Check
	Expected string
	Actual   string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed: %s mismatch: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

// Is lets errors.Is(err, ErrVerificationFailed) match.
func (e *VerificationError) Is(target error) bool {
	return target == ErrVerificationFailed
}

// Kind returns a stable label for the error kind, used for metrics and
// HTTP status mapping. A nil error is "success".
func Kind(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrBucketNotFound):
		return "bucket_not_found"
	case errors.Is(err, ErrObjectNotFound):
		return "object_not_found"
	case errors.Is(err, ErrInvalidMetadata):
		return "invalid_metadata"
	case errors.Is(err, ErrStreamAlreadyConsumed):
		return "stream_consumed"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	case errors.Is(err, ErrStorageUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// IsRetryable reports whether a caller may retry the operation that produced err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// Classify maps a backend error onto the package error kinds.
// Unrecognized errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
		case "NoSuchKey":
			return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return err
}

func isBucketOwned(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists"
}
