package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"transfer-manager/core/storage/memory"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client defines the interface for storage operations.
type Client interface {
	// BucketExists checks if a bucket exists.
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	// MakeBucket creates a new bucket.
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	// RemoveBucket deletes an empty bucket.
	RemoveBucket(ctx context.Context, bucketName string) error
	// PutObject uploads an object.
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject opens an object for reading. The object info is resolved
	// before returning so a missing key fails here rather than on first read.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error)
	// StatObject returns object metadata without opening its body.
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	// ListObjects lists objects in a bucket.
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	// RemoveObject deletes an object from a bucket.
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// NewClient creates a storage client for the configured driver.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "", DriverMinio:
		return newMinioClient(cfg)
	case DriverAWS:
		return newAWSClient(cfg)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func timeoutOf(cfg Config) time.Duration {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return time.Duration(timeout) * time.Second
}

// newTransport builds an HTTP transport with strict connection timeouts.
// Body reads are not bounded here; long downloads rely on the caller's context.
func newTransport(timeout time.Duration) *http.Transport {
	tr := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	tuneTransport(tr, timeout)
	return tr
}

// tuneTransport applies the shared pool and timeout settings to tr.
func tuneTransport(tr *http.Transport, timeout time.Duration) {
	tr.Proxy = http.ProxyFromEnvironment
	tr.ForceAttemptHTTP2 = true
	tr.MaxIdleConns = 100
	tr.IdleConnTimeout = 90 * time.Second
	tr.TLSHandshakeTimeout = timeout
	tr.ExpectContinueTimeout = 1 * time.Second
	tr.ResponseHeaderTimeout = timeout
}

func newMinioClient(cfg Config) (Client, error) {
	// Minio expects endpoint without scheme
	endpoint := strings.TrimPrefix(cfg.Endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(timeoutOf(cfg)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	// Minio connects lazily; the first bucket operation surfaces endpoint problems.

	return &minioClientWrapper{Client: minioClient}, nil
}

type minioClientWrapper struct {
	*minio.Client
}

func (c *minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, minio.ObjectInfo, error) {
	obj, err := c.Client.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, minio.ObjectInfo{}, err
	}
	// GetObject is lazy; Stat issues the request and reports NoSuchKey/NoSuchBucket.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, minio.ObjectInfo{}, err
	}
	return obj, info, nil
}
