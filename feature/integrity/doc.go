// Package integrity audits stored objects against what was uploaded.
//
// # Checks Provided
//
//   - Bucket: Streams every object through a BLAKE3 hasher in bounded chunks, compares the
//     streamed length with the listed size and, when the ledger is configured, the digest with
//     the one recorded at upload time.
//   - Ledger: Validates that the transfers table carries every column the ledger writes.
//
// # HTTP Endpoints
//
//   - GET /integrity : Audits the default bucket and the ledger schema.
//   - GET /integrity/buckets/:bucket : Audits one bucket.
//   - GET /integrity/ledger : Runs the ledger schema check.
package integrity
