// Package storage provides an abstraction layer for object storage services.
//
// The Client interface is expressed in minio-go types and has three drivers:
//
//   - minio: the MinIO Go client, for MinIO and any S3-compatible endpoint (default).
//   - aws: the AWS SDK v2 S3 client, with service errors translated to minio.ErrorResponse.
//   - memory: an in-process store (see core/storage/memory), for local runs and tests.
//
// GetObject resolves object info eagerly so a missing key or bucket is reported
// by the call itself rather than by the first read of the body.
//
// # Testing
//
// core/storage/mocks holds a testify mock of Client; core/storage/storagetest
// hands out fresh in-memory endpoints scoped to a test.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, "test-bucket")
package storage
