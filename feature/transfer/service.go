package transfer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"transfer-manager/core/logger"
	"transfer-manager/core/metrics"
	"transfer-manager/core/transfer"
	"transfer-manager/feature/transfer/ledger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"lukechampine.com/blake3"
)

// ErrLedgerDisabled is returned by ledger queries when no database is configured.
var ErrLedgerDisabled = errors.New("transfer ledger is disabled")

// Service runs uploads, downloads and verified round trips against a Store.
type Service struct {
	store  *transfer.Store
	ledger *ledger.Ledger
	logger *zap.Logger
	cfg    transfer.Config
}

// NewService creates a new transfer service. ldg may be nil.
func NewService(store *transfer.Store, ldg *ledger.Ledger, logger *zap.Logger, cfg transfer.Config) *Service {
	return &Service{
		store:  store,
		ledger: ldg,
		logger: logger,
		cfg:    cfg,
	}
}

// CreateBucket ensures the bucket exists.
func (s *Service) CreateBucket(ctx context.Context, bucket string) error {
	return s.withRetry(ctx, "create_bucket", func() error {
		return s.store.CreateBucket(ctx, bucket)
	})
}

// DeleteBucket removes the bucket and every object in it.
func (s *Service) DeleteBucket(ctx context.Context, bucket string) error {
	return s.withRetry(ctx, "delete_bucket", func() error {
		return s.store.DeleteBucket(ctx, bucket)
	})
}

// Upload stores r under a freshly generated key and returns the transfer in
// StateStored, or StateFailed together with the error.
// Retries only happen when r is an io.Seeker so every attempt sends the full payload.
func (s *Service) Upload(ctx context.Context, bucket, filename, contentType string, r io.Reader, size int64) (*transfer.Transfer, error) {
	meta, err := transfer.NewMetadata(contentType, size)
	if err != nil {
		return nil, err
	}

	t := transfer.NewTransfer(bucket, filename, meta)
	if err := t.Advance(transfer.StateUploading); err != nil {
		return nil, err
	}
	l := logger.WithObject(s.logger, bucket, t.Key)

	hasher := blake3.New(32, nil)
	put := func() error {
		return s.store.Put(ctx, bucket, t.Key, io.TeeReader(r, hasher), meta)
	}

	if seeker, ok := r.(io.Seeker); ok {
		start, serr := seeker.Seek(0, io.SeekCurrent)
		if serr != nil {
			return nil, fmt.Errorf("failed to read stream position: %w", serr)
		}
		err = s.withRetry(ctx, "put", func() error {
			if _, err := seeker.Seek(start, io.SeekStart); err != nil {
				return backoff.Permanent(err)
			}
			hasher.Reset()
			return put()
		})
	} else {
		err = put()
	}

	if err != nil {
		l.Error("Upload failed", zap.Error(err))
		_ = t.Fail(err)
		s.record(ctx, t)
		return t, err
	}

	t.Digest = hex.EncodeToString(hasher.Sum(nil))
	if err := t.Advance(transfer.StateStored); err != nil {
		return t, err
	}
	l.Info("Object uploaded",
		zap.String("content_type", meta.ContentType),
		zap.Int64("size", meta.ContentLength),
		zap.String("digest", t.Digest),
	)
	s.record(ctx, t)
	return t, nil
}

// Open returns the read-once stream for bucket/key.
func (s *Service) Open(ctx context.Context, bucket, key string) (*transfer.StoredObject, error) {
	var obj *transfer.StoredObject
	err := s.withRetry(ctx, "get", func() error {
		var err error
		obj, err = s.store.Get(ctx, bucket, key)
		return err
	})
	return obj, err
}

// Stream copies obj into sink. Both are closed before it returns.
func (s *Service) Stream(obj *transfer.StoredObject, sink io.Writer) (int64, error) {
	return s.store.DownloadToSink(obj, sink)
}

// Download opens bucket/key and streams it into sink.
func (s *Service) Download(ctx context.Context, bucket, key string, sink io.Writer) (transfer.Metadata, int64, error) {
	obj, err := s.Open(ctx, bucket, key)
	if err != nil {
		if c, ok := sink.(io.Closer); ok {
			_ = c.Close()
		}
		return transfer.Metadata{}, 0, err
	}
	n, err := s.Stream(obj, sink)
	return obj.Metadata, n, err
}

// DownloadToFile writes bucket/key into dir and returns the file path.
func (s *Service) DownloadToFile(ctx context.Context, bucket, key, dir string) (string, int64, error) {
	obj, err := s.Open(ctx, bucket, key)
	if err != nil {
		return "", 0, err
	}
	return s.store.DownloadToFile(obj, dir)
}

// RoundTrip uploads content, downloads it again and verifies the copy.
// The downloaded bytes are also written to sink when it is not nil; sink is
// closed if it implements io.Closer.
// A verification mismatch is returned as a *transfer.VerificationError.
func (s *Service) RoundTrip(ctx context.Context, bucket, filename, contentType string, content []byte, sink io.Writer) (*transfer.Transfer, transfer.Result, error) {
	// DownloadToSink owns the sink once it is called; before that we release it.
	handedOff := false
	defer func() {
		if handedOff {
			return
		}
		if c, ok := sink.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.Warn("Failed to close sink", zap.String("bucket", bucket), zap.Error(err))
			}
		}
	}()

	meta, err := transfer.BuildMetadata(contentType, content)
	if err != nil {
		return nil, transfer.Result{}, err
	}

	t, err := s.Upload(ctx, bucket, filename, meta.ContentType, bytes.NewReader(content), meta.ContentLength)
	if err != nil {
		return t, transfer.Result{}, err
	}

	if err := t.Advance(transfer.StateDownloading); err != nil {
		return t, transfer.Result{}, err
	}

	fail := func(cause error) (*transfer.Transfer, transfer.Result, error) {
		_ = t.Fail(cause)
		s.record(ctx, t)
		return t, transfer.Result{}, cause
	}

	obj, err := s.Open(ctx, bucket, t.Key)
	if err != nil {
		return fail(err)
	}

	var downloaded bytes.Buffer
	handedOff = true
	if _, err := s.store.DownloadToSink(obj, teeSink(&downloaded, sink)); err != nil {
		return fail(err)
	}

	result := transfer.Verify(transfer.Original{Metadata: meta, Content: content}, obj, downloaded.Bytes())
	l := logger.WithObject(s.logger, bucket, t.Key)
	if !result.AllMatched() {
		metrics.VerificationsTotal.WithLabelValues(string(result.Check)).Inc()
		verr := result.Err()
		l.Warn("Round trip verification failed", zap.Error(verr))
		_ = t.Fail(verr)
		s.record(ctx, t)
		return t, result, verr
	}

	metrics.VerificationsTotal.WithLabelValues("matched").Inc()
	if err := t.Advance(transfer.StateVerified); err != nil {
		return t, result, err
	}
	l.Info("Round trip verified", zap.Int64("size", meta.ContentLength))
	s.record(ctx, t)
	return t, result, nil
}

// Stat returns the stored metadata of bucket/key.
func (s *Service) Stat(ctx context.Context, bucket, key string) (transfer.Metadata, error) {
	var meta transfer.Metadata
	err := s.withRetry(ctx, "stat", func() error {
		var err error
		meta, err = s.store.Stat(ctx, bucket, key)
		return err
	})
	return meta, err
}

// History lists the most recent ledger entries.
func (s *Service) History(ctx context.Context, limit int) ([]ledger.Record, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledger.List(ctx, limit)
}

// Lookup returns the ledger entry for bucket/key.
func (s *Service) Lookup(ctx context.Context, bucket, key string) (*ledger.Record, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledger.Find(ctx, bucket, key)
}

// record saves t in the ledger. Ledger failures never fail the transfer.
func (s *Service) record(ctx context.Context, t *transfer.Transfer) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Save(ctx, t); err != nil {
		logger.WithObject(s.logger, t.Bucket, t.Key).Warn("Failed to record transfer", zap.Error(err))
	}
}

// withRetry runs fn, retrying ErrStorageUnavailable with exponential backoff
// until the configured budget is spent. Other errors are returned at once.
func (s *Service) withRetry(ctx context.Context, op string, fn func() error) error {
	if s.cfg.RetryMaxElapsed() <= 0 {
		return fn()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitial()
	b.MaxElapsedTime = s.cfg.RetryMaxElapsed()

	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !transfer.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx), func(err error, wait time.Duration) {
		s.logger.Warn("Storage unavailable, retrying",
			zap.String("operation", op),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}

type multiSink struct {
	io.Writer
	sink io.Writer
}

func (m multiSink) Close() error {
	if c, ok := m.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func teeSink(buf *bytes.Buffer, sink io.Writer) io.Writer {
	if sink == nil {
		return buf
	}
	return multiSink{Writer: io.MultiWriter(buf, sink), sink: sink}
}
