// Package transfer exposes bucket and object transfers over HTTP.
//
// The Service wraps a transfer.Store with a caller-side retry policy for
// unavailable storage, BLAKE3 digests of uploaded payloads and an optional
// database ledger. Round trips walk the transfer state machine from pending
// to verified or failed.
//
// Routes:
//
//	POST   /buckets/:bucket              create bucket
//	DELETE /buckets/:bucket              delete bucket and its objects
//	POST   /buckets/:bucket/objects      upload multipart "file"
//	GET    /buckets/:bucket/objects/*    stream object body
//	HEAD   /buckets/:bucket/objects/*    object metadata
//	POST   /buckets/:bucket/roundtrip    upload, download and verify
//	GET    /transfers                    ledger history
//	GET    /transfers/:bucket/*          ledger entry of one object
package transfer
