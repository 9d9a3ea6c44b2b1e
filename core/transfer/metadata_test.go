package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetadata(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"Fixture", []byte("test_content")},
		{"Empty", []byte{}},
		{"Nil", nil},
		{"Binary", []byte{0x00, 0xff, 0x10, 0x00}},
		{"Large", make([]byte, 1<<20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := BuildMetadata("img/png", tt.content)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.content)), meta.ContentLength)
			assert.Equal(t, "img/png", meta.ContentType)
		})
	}
}

func TestBuildMetadata_EmptyContentType(t *testing.T) {
	_, err := BuildMetadata("", []byte("test_content"))
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestNewMetadata(t *testing.T) {
	meta, err := NewMetadata("text/plain", 12)
	require.NoError(t, err)
	assert.Equal(t, Metadata{ContentType: "text/plain", ContentLength: 12}, meta)

	_, err = NewMetadata("text/plain", -1)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}
