package transfer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retrieved(contentType string, length int64) *StoredObject {
	return &StoredObject{Bucket: "b", Key: "k", Metadata: Metadata{ContentType: contentType, ContentLength: length}}
}

func TestVerify(t *testing.T) {
	original := Original{
		Metadata: Metadata{ContentType: "img/png", ContentLength: 12},
		Content:  []byte("test_content"),
	}

	tests := []struct {
		name       string
		obj        *StoredObject
		downloaded []byte
		wantCheck  Check
		wantOffset int64
	}{
		{"AllMatched", retrieved("img/png", 12), []byte("test_content"), "", -1},
		{"ContentType", retrieved("image/png", 12), []byte("test_content"), CheckContentType, -1},
		{"ContentLength", retrieved("img/png", 11), []byte("test_content"), CheckContentLength, -1},
		{"Content", retrieved("img/png", 12), []byte("test_c0ntent"), CheckContent, 6},
		{"Truncated", retrieved("img/png", 12), []byte("test_"), CheckContent, 5},
		// type is checked first even when everything else is also wrong
		{"TypeShortCircuits", retrieved("text/plain", 3), []byte("abc"), CheckContentType, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(original, tt.obj, tt.downloaded)
			assert.Equal(t, tt.wantCheck, result.Check)
			assert.Equal(t, tt.wantOffset, result.Offset)

			if tt.wantCheck == "" {
				assert.True(t, result.AllMatched())
				assert.Equal(t, "AllMatched", result.String())
				assert.NoError(t, result.Err())
				return
			}

			err := result.Err()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrVerificationFailed)

			var verr *VerificationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantCheck, verr.Check)
			assert.NotEqual(t, verr.Expected, verr.Actual)
		})
	}
}

func TestVerify_ReportsExpectedAndActual(t *testing.T) {
	original := Original{Metadata: Metadata{ContentType: "img/png", ContentLength: 12}, Content: []byte("test_content")}

	result := Verify(original, retrieved("image/png", 12), nil)
	assert.Equal(t, `"img/png"`, result.Expected)
	assert.Equal(t, `"image/png"`, result.Actual)
	assert.Contains(t, result.Err().Error(), "content_type mismatch")

	result = Verify(original, retrieved("img/png", 12), []byte("test_c0ntent"))
	assert.Equal(t, `12 bytes, "ontent" at offset 6`, result.Expected)
	assert.Equal(t, `12 bytes, "0ntent" at offset 6`, result.Actual)
}

func TestVerify_Empty(t *testing.T) {
	original := Original{Metadata: Metadata{ContentType: "text/plain"}, Content: []byte{}}
	result := Verify(original, retrieved("text/plain", 0), nil)
	assert.True(t, result.AllMatched())
}
