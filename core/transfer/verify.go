package transfer

import (
	"bytes"
	"fmt"
	"strconv"
)

// Check names one round-trip verification step.
type Check string

const (
	CheckContentType   Check = "content_type"
	CheckContentLength Check = "content_length"
	CheckContent       Check = "content"
)

// Original is what the caller uploaded.
type Original struct {
	Metadata Metadata
	Content  []byte
}

// Result is the outcome of Verify. A zero Check means every check passed.
type Result struct {
	Check    Check  `json:"check,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	// Offset is the first differing byte for a content mismatch, -1 otherwise.
	Offset int64 `json:"offset"`
}

// AllMatched reports whether every check passed.
func (r Result) AllMatched() bool {
	return r.Check == ""
}

func (r Result) String() string {
	if r.AllMatched() {
		return "AllMatched"
	}
	return fmt.Sprintf("%s mismatch: expected %s, got %s", r.Check, r.Expected, r.Actual)
}

// Err returns a *VerificationError for a failed result and nil otherwise.
func (r Result) Err() error {
	if r.AllMatched() {
		return nil
	}
	return &VerificationError{Check: r.Check, Expected: r.Expected, Actual: r.Actual}
}

// Verify compares an upload with what came back. Checks run cheapest first
// (content type, then length, then bytes) and the first failure is returned.
func Verify(original Original, retrieved *StoredObject, downloaded []byte) Result {
	want, got := original.Metadata, retrieved.Metadata

	if want.ContentType != got.ContentType {
		return Result{
			Check:    CheckContentType,
			Expected: strconv.Quote(want.ContentType),
			Actual:   strconv.Quote(got.ContentType),
			Offset:   -1,
		}
	}
	if want.ContentLength != got.ContentLength {
		return Result{
			Check:    CheckContentLength,
			Expected: strconv.FormatInt(want.ContentLength, 10),
			Actual:   strconv.FormatInt(got.ContentLength, 10),
			Offset:   -1,
		}
	}
	if !bytes.Equal(original.Content, downloaded) {
		offset := firstDifference(original.Content, downloaded)
		return Result{
			Check:    CheckContent,
			Expected: describeAt(original.Content, offset),
			Actual:   describeAt(downloaded, offset),
			Offset:   int64(offset),
		}
	}

	return Result{Offset: -1}
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

const snippetLength = 16

// describeAt renders the total length and a short window starting at offset.
func describeAt(data []byte, offset int) string {
	end := min(offset+snippetLength, len(data))
	window := []byte{}
	if offset < len(data) {
		window = data[offset:end]
	}
	return fmt.Sprintf("%d bytes, %q at offset %d", len(data), window, offset)
}
