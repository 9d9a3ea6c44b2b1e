package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
)

type object struct {
	data        []byte
	contentType string
	etag        string
	modified    time.Time
}

// Store is an in-memory object store. The zero value is not usable; use New.
type Store struct {
	mu       sync.RWMutex
	buckets  map[string]map[string]object
	closed   bool
	failNext int

	openReaders atomic.Int64
}

// New creates an empty, online store.
func New() *Store {
	return &Store{buckets: make(map[string]map[string]object)}
}

// Close takes the store offline. Every later call fails with a connection error.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// FailNext makes the next n calls fail with a connection error.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// OpenReaders reports object bodies handed out by GetObject and not yet closed.
func (s *Store) OpenReaders() int64 {
	return s.openReaders.Load()
}

// unavailable must be called with the lock held.
func (s *Store) unavailable(op string) error {
	if s.closed {
		return &net.OpError{Op: op, Net: "tcp", Err: errors.New("connection refused")}
	}
	if s.failNext > 0 {
		s.failNext--
		return &net.OpError{Op: op, Net: "tcp", Err: errors.New("connection reset by peer")}
	}
	return nil
}

func noSuchBucket(bucket string) error {
	return minio.ErrorResponse{
		Code:       "NoSuchBucket",
		Message:    "The specified bucket does not exist",
		BucketName: bucket,
		StatusCode: http.StatusNotFound,
	}
}

func noSuchKey(bucket, key string) error {
	return minio.ErrorResponse{
		Code:       "NoSuchKey",
		Message:    "The specified key does not exist.",
		BucketName: bucket,
		Key:        key,
		StatusCode: http.StatusNotFound,
	}
}

func (s *Store) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("dial"); err != nil {
		return false, err
	}
	_, ok := s.buckets[bucketName]
	return ok, nil
}

func (s *Store) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("dial"); err != nil {
		return err
	}
	if _, ok := s.buckets[bucketName]; ok {
		return minio.ErrorResponse{
			Code:       "BucketAlreadyOwnedByYou",
			Message:    "Your previous request to create the named bucket succeeded and you already own it.",
			BucketName: bucketName,
			StatusCode: http.StatusConflict,
		}
	}
	s.buckets[bucketName] = make(map[string]object)
	return nil
}

func (s *Store) RemoveBucket(ctx context.Context, bucketName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("dial"); err != nil {
		return err
	}
	objects, ok := s.buckets[bucketName]
	if !ok {
		return noSuchBucket(bucketName)
	}
	if len(objects) > 0 {
		return minio.ErrorResponse{
			Code:       "BucketNotEmpty",
			Message:    "The bucket you tried to delete is not empty",
			BucketName: bucketName,
			StatusCode: http.StatusConflict,
		}
	}
	delete(s.buckets, bucketName)
	return nil
}

// PutObject reads the whole body before committing, so a failed read
// never leaves a partial object behind.
func (s *Store) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	s.mu.RLock()
	err := s.checkBucket(bucketName)
	s.mu.RUnlock()
	if err != nil {
		return minio.UploadInfo{}, err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	if objectSize >= 0 && int64(len(data)) != objectSize {
		return minio.UploadInfo{}, fmt.Errorf("read %d bytes, expected %d: %w", len(data), objectSize, io.ErrUnexpectedEOF)
	}
	if err := ctx.Err(); err != nil {
		return minio.UploadInfo{}, err
	}

	sum := md5.Sum(data)
	obj := object{
		data:        data,
		contentType: opts.ContentType,
		etag:        hex.EncodeToString(sum[:]),
		modified:    time.Now().UTC(),
	}
	if obj.contentType == "" {
		obj.contentType = "application/octet-stream"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("write"); err != nil {
		return minio.UploadInfo{}, err
	}
	objects, ok := s.buckets[bucketName]
	if !ok {
		return minio.UploadInfo{}, noSuchBucket(bucketName)
	}
	objects[objectName] = obj

	return minio.UploadInfo{
		Bucket:       bucketName,
		Key:          objectName,
		ETag:         obj.etag,
		Size:         int64(len(data)),
		LastModified: obj.modified,
	}, nil
}

// checkBucket must be called with the lock held. Taking a read lock means
// a pending FailNext is not consumed here; the commit step consumes it.
func (s *Store) checkBucket(bucketName string) error {
	if s.closed {
		return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	if _, ok := s.buckets[bucketName]; !ok {
		return noSuchBucket(bucketName)
	}
	return nil
}

func (s *Store) lookup(bucketName, objectName string) (object, error) {
	objects, ok := s.buckets[bucketName]
	if !ok {
		return object{}, noSuchBucket(bucketName)
	}
	obj, ok := objects[objectName]
	if !ok {
		return object{}, noSuchKey(bucketName, objectName)
	}
	return obj, nil
}

func (o object) info(key string) minio.ObjectInfo {
	return minio.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		ETag:         o.etag,
		LastModified: o.modified,
	}
}

func (s *Store) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("read"); err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	obj, err := s.lookup(bucketName, objectName)
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}

	s.openReaders.Add(1)
	// Stored slices are never mutated after commit, so readers can share them.
	return &body{Reader: bytes.NewReader(obj.data), store: s}, obj.info(objectName), nil
}

func (s *Store) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("read"); err != nil {
		return minio.ObjectInfo{}, err
	}
	obj, err := s.lookup(bucketName, objectName)
	if err != nil {
		return minio.ObjectInfo{}, err
	}
	return obj.info(objectName), nil
}

func (s *Store) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var infos []minio.ObjectInfo
	if err := s.unavailable("read"); err != nil {
		infos = append(infos, minio.ObjectInfo{Err: err})
	} else if objects, ok := s.buckets[bucketName]; !ok {
		infos = append(infos, minio.ObjectInfo{Err: noSuchBucket(bucketName)})
	} else {
		keys := make([]string, 0, len(objects))
		for k := range objects {
			if strings.HasPrefix(k, opts.Prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		seen := make(map[string]bool)
		for _, k := range keys {
			if !opts.Recursive {
				rest := strings.TrimPrefix(k, opts.Prefix)
				if i := strings.Index(rest, "/"); i >= 0 {
					prefix := opts.Prefix + rest[:i+1]
					if !seen[prefix] {
						seen[prefix] = true
						infos = append(infos, minio.ObjectInfo{Key: prefix})
					}
					continue
				}
			}
			infos = append(infos, objects[k].info(k))
		}
	}

	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func (s *Store) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.unavailable("write"); err != nil {
		return err
	}
	objects, ok := s.buckets[bucketName]
	if !ok {
		return noSuchBucket(bucketName)
	}
	// S3 deletes are idempotent
	delete(objects, objectName)
	return nil
}

type body struct {
	*bytes.Reader
	store *Store
	once  sync.Once
}

func (b *body) Close() error {
	b.once.Do(func() { b.store.openReaders.Add(-1) })
	return nil
}
