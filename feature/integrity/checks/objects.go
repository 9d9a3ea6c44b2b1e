package checks

import (
	"context"
	"encoding/hex"
	"fmt"

	"transfer-manager/core/storage"
	"transfer-manager/core/transfer"

	"github.com/minio/minio-go/v7"
	"lukechampine.com/blake3"
)

const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// ObjectReport is the audit result of one stored object.
type ObjectReport struct {
	Key      string   `json:"key"`
	Status   string   `json:"status"`
	Size     int64    `json:"size"`
	Streamed int64    `json:"streamed"`
	Digest   string   `json:"digest,omitempty"`
	Recorded string   `json:"recorded,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

// BucketReport strictly types the result of a bucket audit.
type BucketReport struct {
	Bucket  string         `json:"bucket"`
	Matched bool           `json:"matched"`
	Checked int            `json:"checked"`
	Objects []ObjectReport `json:"objects"`
}

// DigestLookup returns the recorded digest of bucket/key, or "" when nothing is recorded.
type DigestLookup func(ctx context.Context, bucket, key string) (string, error)

// CheckObjects streams every object in bucket through a BLAKE3 hasher and
// compares the streamed length with the listed size and, when lookup is set,
// the digest with the recorded one.
func CheckObjects(ctx context.Context, client storage.Client, store *transfer.Store, bucket string, lookup DigestLookup) (*BucketReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", transfer.Classify(err))
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", transfer.ErrBucketNotFound, bucket)
	}

	report := &BucketReport{
		Bucket:  bucket,
		Matched: true,
		Objects: []ObjectReport{},
	}

	for info := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, transfer.Classify(info.Err))
		}

		obj := checkObject(ctx, store, bucket, info, lookup)
		if obj.Status != StatusOK {
			report.Matched = false
		}
		report.Objects = append(report.Objects, obj)
		report.Checked++
	}

	return report, nil
}

func checkObject(ctx context.Context, store *transfer.Store, bucket string, info minio.ObjectInfo, lookup DigestLookup) ObjectReport {
	r := ObjectReport{Key: info.Key, Size: info.Size, Status: StatusOK}

	obj, err := store.Get(ctx, bucket, info.Key)
	if err != nil {
		r.Status = StatusError
		r.Problems = append(r.Problems, err.Error())
		return r
	}

	hasher := blake3.New(32, nil)
	n, err := store.DownloadToSink(obj, hasher)
	r.Streamed = n
	if err != nil {
		r.Status = StatusError
		r.Problems = append(r.Problems, err.Error())
		return r
	}
	r.Digest = hex.EncodeToString(hasher.Sum(nil))

	if n != info.Size {
		r.Status = StatusMismatch
		r.Problems = append(r.Problems, fmt.Sprintf("length: listed %d, streamed %d", info.Size, n))
	}

	if lookup == nil {
		return r
	}
	recorded, err := lookup(ctx, bucket, info.Key)
	if err != nil {
		r.Status = StatusError
		r.Problems = append(r.Problems, fmt.Sprintf("ledger lookup: %v", err))
		return r
	}
	r.Recorded = recorded
	if recorded != "" && recorded != r.Digest {
		r.Status = StatusMismatch
		r.Problems = append(r.Problems, fmt.Sprintf("digest: recorded %s, streamed %s", recorded, r.Digest))
	}
	return r
}
