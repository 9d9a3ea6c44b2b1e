// Package storagetest provides scoped storage endpoints for tests.
package storagetest

import (
	"context"
	"testing"

	"transfer-manager/core/storage/memory"

	"github.com/minio/minio-go/v7"
)

// New acquires a fresh in-memory endpoint that is shut down when the test ends,
// whatever its outcome.
func New(t testing.TB) *memory.Store {
	t.Helper()
	s := memory.New()
	t.Cleanup(s.Close)
	return s
}

// NewWithBucket acquires a fresh endpoint with the given bucket already created.
func NewWithBucket(t testing.TB, bucket string) *memory.Store {
	t.Helper()
	s := New(t)
	if err := s.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
		t.Fatalf("failed to create bucket %s: %v", bucket, err)
	}
	return s
}
