package transfer

import (
	"strings"

	"github.com/google/uuid"
)

// KeySeparator joins the random identifier and the source filename.
const KeySeparator = "_"

const uuidLength = 36

// GenerateKey returns "<uuid>_<filename>". The random v4 identifier makes
// collisions negligible while the suffix keeps the key traceable to its source.
func GenerateKey(filename string) string {
	return uuid.NewString() + KeySeparator + filename
}

// SourceFilename recovers the filename from a key built by GenerateKey.
func SourceFilename(key string) (string, bool) {
	if len(key) < uuidLength+len(KeySeparator) {
		return "", false
	}
	if _, err := uuid.Parse(key[:uuidLength]); err != nil {
		return "", false
	}
	if !strings.HasPrefix(key[uuidLength:], KeySeparator) {
		return "", false
	}
	return key[uuidLength+len(KeySeparator):], true
}
