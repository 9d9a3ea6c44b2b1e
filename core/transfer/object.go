package transfer

import (
	"fmt"
	"io"
)

// StoredObject is an object opened by Store.Get. Its body belongs to the
// caller and can be read through once; Close releases it early.
type StoredObject struct {
	Bucket   string
	Key      string
	Metadata Metadata

	body     io.ReadCloser
	consumed bool
	closed   bool
}

func newStoredObject(bucket, key string, meta Metadata, body io.ReadCloser) *StoredObject {
	return &StoredObject{
		Bucket:   bucket,
		Key:      key,
		Metadata: meta,
		body:     body,
	}
}

// Read reads from the object body. Once the body has reported io.EOF, or has
// been closed, every further Read fails with ErrStreamAlreadyConsumed.
func (o *StoredObject) Read(p []byte) (int, error) {
	if o.consumed {
		return 0, fmt.Errorf("%w: %s/%s", ErrStreamAlreadyConsumed, o.Bucket, o.Key)
	}
	if o.closed {
		return 0, fmt.Errorf("%w: %s/%s is closed", ErrStreamAlreadyConsumed, o.Bucket, o.Key)
	}
	n, err := o.body.Read(p)
	if err == io.EOF {
		o.consumed = true
	}
	return n, err
}

// Close releases the body without draining it. It is safe to call more than once.
func (o *StoredObject) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.body.Close()
}

// Consumed reports whether the body has been read to the end.
func (o *StoredObject) Consumed() bool {
	return o.consumed
}
