package transfer

import "fmt"

// Metadata describes a stored payload. ContentLength is always the exact
// byte length of the payload.
type Metadata struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
}

// BuildMetadata derives metadata from in-memory content. The length is taken
// from content itself, never from the caller.
func BuildMetadata(contentType string, content []byte) (Metadata, error) {
	return NewMetadata(contentType, int64(len(content)))
}

// NewMetadata builds metadata for a stream whose length is known up front.
// Put rejects the stream if it turns out to be shorter or longer.
func NewMetadata(contentType string, length int64) (Metadata, error) {
	m := Metadata{ContentType: contentType, ContentLength: length}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate checks the metadata invariants.
func (m Metadata) Validate() error {
	if m.ContentType == "" {
		return fmt.Errorf("%w: content type is empty", ErrInvalidMetadata)
	}
	if m.ContentLength < 0 {
		return fmt.Errorf("%w: negative content length %d", ErrInvalidMetadata, m.ContentLength)
	}
	return nil
}
