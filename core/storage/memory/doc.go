// Package memory implements an in-process S3-compatible object store.
//
// It mirrors the subset of S3 semantics the storage client relies on
// (bucket lifecycle, atomic puts, NoSuchKey/NoSuchBucket errors) and reports
// failures as minio.ErrorResponse values, so code written against a real
// endpoint behaves the same against it. It backs the "memory" storage driver
// and the storagetest helpers.
//
// A Store can be taken offline with Close or made to fail a number of calls
// with FailNext; both surface as connection errors, which lets tests drive
// the unavailable-endpoint paths.
package memory
