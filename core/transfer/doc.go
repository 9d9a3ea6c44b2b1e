// Package transfer implements the object transfer core: key generation,
// payload metadata, streamed put and get against a storage.Client, chunked
// download into any io.Writer, and round-trip verification.
//
// # Flow
//
//	key := transfer.GenerateKey("img01.png")
//	meta, err := transfer.BuildMetadata("img/png", content)
//	err = store.Put(ctx, "test-bucket", key, bytes.NewReader(content), meta)
//	obj, err := store.Get(ctx, "test-bucket", key)
//	n, err := store.DownloadToSink(obj, &buf)
//	result := transfer.Verify(transfer.Original{Metadata: meta, Content: content}, obj, buf.Bytes())
//
// # Errors
//
// Failures are reported through sentinel errors (ErrBucketNotFound,
// ErrObjectNotFound, ErrStorageUnavailable, ErrInvalidMetadata,
// ErrStreamAlreadyConsumed, ErrVerificationFailed) matched with errors.Is.
// Nothing is retried here; ErrStorageUnavailable is the only kind a caller
// should retry.
//
// # Streams
//
// Put never buffers the payload: the source is streamed to the endpoint and
// its length is checked against the metadata on the fly. The body of a
// StoredObject is read-once and owned by the caller until closed.
package transfer
