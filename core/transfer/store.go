package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"transfer-manager/core/metrics"
	"transfer-manager/core/storage"
	"transfer-manager/core/utils"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// DefaultChunkSize is the buffer size used when streaming a body to a sink.
const DefaultChunkSize = 1024

// Store performs bucket and object operations against a storage endpoint.
// It keeps no per-object state; the endpoint handle is shared read-only
// across transfers. Errors are classified but never retried here.
type Store struct {
	client    storage.Client
	logger    *zap.Logger
	chunkSize int
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize sets the download buffer size. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewStore creates a Store over the given client.
func NewStore(client storage.Client, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		client:    client,
		logger:    logger,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBucket creates a bucket. Creating a bucket that already exists is a no-op.
func (s *Store) CreateBucket(ctx context.Context, bucket string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("create_bucket", start, Kind(err)) }()

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		if isBucketOwned(err) {
			s.logger.Debug("Bucket already exists", zap.String("bucket", bucket))
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, Classify(err))
	}

	s.logger.Info("Created bucket", zap.String("bucket", bucket))
	return nil
}

// DeleteBucket removes every object in the bucket and then the bucket itself.
// Deleting a missing bucket is a no-op.
func (s *Store) DeleteBucket(ctx context.Context, bucket string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("delete_bucket", start, Kind(err)) }()

	removed := 0
	for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			cerr := Classify(info.Err)
			if errors.Is(cerr, ErrBucketNotFound) {
				return nil
			}
			return fmt.Errorf("failed to list bucket %s: %w", bucket, cerr)
		}
		if err := s.client.RemoveObject(ctx, bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove object %s/%s: %w", bucket, info.Key, Classify(err))
		}
		removed++
	}

	if err := s.client.RemoveBucket(ctx, bucket); err != nil {
		cerr := Classify(err)
		if errors.Is(cerr, ErrBucketNotFound) {
			return nil
		}
		return fmt.Errorf("failed to remove bucket %s: %w", bucket, cerr)
	}

	s.logger.Info("Deleted bucket", zap.String("bucket", bucket), zap.Int("objects", removed))
	return nil
}

// Put streams content to bucket/key. Exactly meta.ContentLength bytes must be
// readable from content; the object only becomes visible once the upload
// has completed.
func (s *Store) Put(ctx context.Context, bucket, key string, content io.Reader, meta Metadata) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("put", start, Kind(err)) }()

	if err := meta.Validate(); err != nil {
		return err
	}

	lr := newLengthReader(content, meta.ContentLength)
	if meta.ContentLength == 0 {
		// A zero-length upload may never call Read; probe the source up front.
		if err := lr.finish(); err != io.EOF {
			return err
		}
	}

	_, err = s.client.PutObject(ctx, bucket, key, lr, meta.ContentLength, minio.PutObjectOptions{
		ContentType: meta.ContentType,
	})
	if lr.err != nil {
		// The backend may wrap or replace the reader's error; report the source's.
		err = lr.err
	}
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, Classify(err))
	}

	metrics.BytesTotal.WithLabelValues(metrics.DirectionUpload).Add(float64(meta.ContentLength))
	s.logger.Debug("Stored object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.String("content_type", meta.ContentType),
		zap.Int64("content_length", meta.ContentLength),
	)
	return nil
}

// Get opens bucket/key. The returned object's body must be closed by the caller.
func (s *Store) Get(ctx context.Context, bucket, key string) (obj *StoredObject, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("get", start, Kind(err)) }()

	body, info, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, Classify(err))
	}

	meta := Metadata{ContentType: info.ContentType, ContentLength: info.Size}
	return newStoredObject(bucket, key, meta, body), nil
}

// Stat returns the metadata of bucket/key without opening its body.
func (s *Store) Stat(ctx context.Context, bucket, key string) (meta Metadata, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("stat", start, Kind(err)) }()

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, Classify(err))
	}
	return Metadata{ContentType: info.ContentType, ContentLength: info.Size}, nil
}

// DownloadToSink copies the object body to sink in fixed-size chunks and
// returns the number of bytes written. The body, and the sink when it is an
// io.Closer, are closed on every path. A close failure is returned only when
// nothing else went wrong; otherwise it is logged.
func (s *Store) DownloadToSink(obj *StoredObject, sink io.Writer) (written int64, err error) {
	start := time.Now()
	log := s.logger.With(zap.String("bucket", obj.Bucket), zap.String("key", obj.Key))

	defer func() {
		if cerr := obj.Close(); cerr != nil {
			log.Warn("Failed to close object body", zap.Error(cerr))
		}
		if closer, ok := sink.(io.Closer); ok {
			if cerr := closer.Close(); cerr != nil {
				if err == nil {
					err = fmt.Errorf("failed to close sink: %w", cerr)
				} else {
					log.Warn("Failed to close sink", zap.Error(cerr))
				}
			}
		}
		metrics.BytesTotal.WithLabelValues(metrics.DirectionDownload).Add(float64(written))
		metrics.ObserveOperation("download", start, Kind(err))
	}()

	buf := make([]byte, s.chunkSize)
	for {
		n, rerr := obj.Read(buf)
		if n > 0 {
			w, werr := sink.Write(buf[:n])
			written += int64(w)
			if werr != nil {
				return written, fmt.Errorf("failed to write to sink: %w", werr)
			}
			if w != n {
				return written, fmt.Errorf("failed to write to sink: %w", io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("failed to read object %s/%s: %w", obj.Bucket, obj.Key, Classify(rerr))
		}
	}
}

// DownloadToFile writes the object into dir as "<key>.<ext>", where ext is the
// extension of the filename embedded in the key. A partially written file is
// removed on failure.
func (s *Store) DownloadToFile(obj *StoredObject, dir string) (string, int64, error) {
	name := obj.Key
	if source, ok := SourceFilename(obj.Key); ok {
		if ext := utils.FileExtension(source); ext != "" {
			name += "." + ext
		}
	}
	path := filepath.Join(dir, filepath.Base(name))

	f, err := os.Create(path)
	if err != nil {
		_ = obj.Close()
		return "", 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := s.DownloadToSink(obj, f)
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			s.logger.Warn("Failed to remove partial download", zap.String("path", path), zap.Error(rerr))
		}
		return "", n, err
	}
	return path, n, nil
}
