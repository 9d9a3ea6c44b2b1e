package integrity

import (
	"context"
	"errors"

	"transfer-manager/core/storage"
	"transfer-manager/core/transfer"
	"transfer-manager/feature/integrity/checks"
	"transfer-manager/feature/transfer/ledger"

	"go.uber.org/zap"
)

// Service handles integrity checks.
type Service struct {
	client storage.Client
	store  *transfer.Store
	bucket string
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewService creates a new integrity service. ldg may be nil, in which case
// digests are not compared.
func NewService(client storage.Client, bucket string, ldg *ledger.Ledger, logger *zap.Logger, chunkSize int) *Service {
	return &Service{
		client: client,
		store:  transfer.NewStore(client, logger, transfer.WithChunkSize(chunkSize)),
		bucket: bucket,
		ledger: ldg,
		logger: logger,
	}
}

// DefaultBucket is the bucket audited when none is given.
func (s *Service) DefaultBucket() string {
	return s.bucket
}

// CheckBucket audits every object in bucket, or the default bucket when empty.
func (s *Service) CheckBucket(ctx context.Context, bucket string) (*checks.BucketReport, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	var lookup checks.DigestLookup
	if s.ledger != nil {
		lookup = s.recordedDigest
	}
	return checks.CheckObjects(ctx, s.client, s.store, bucket, lookup)
}

// CheckLedger verifies the ledger schema.
func (s *Service) CheckLedger() (*checks.LedgerReport, error) {
	return checks.CheckLedger(s.ledger)
}

func (s *Service) recordedDigest(ctx context.Context, bucket, key string) (string, error) {
	rec, err := s.ledger.Find(ctx, bucket, key)
	if errors.Is(err, ledger.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return rec.Digest, nil
}
