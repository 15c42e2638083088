package dataurl

import (
	"encoding/base64"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const (
	prefix = "data:"
	marker = ";base64,"
)

// IsDataURL reports whether s is a base64 data URL
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, prefix) && strings.Contains(s, marker)
}

// Encode builds a base64 data URL
func Encode(mimeType string, data []byte) string {
	return prefix + mimeType + marker + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the payload and MIME type of a base64 data URL
func Decode(s string) ([]byte, string, error) {
	if !strings.HasPrefix(s, prefix) {
		return nil, "", goerr.New("invalid data URL prefix")
	}
	idx := strings.Index(s, marker)
	if idx < 0 {
		return nil, "", goerr.New("data URL missing base64 marker")
	}

	mimeType := strings.TrimPrefix(s[:idx], prefix)
	raw, err := base64.StdEncoding.DecodeString(s[idx+len(marker):])
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to decode data URL payload", goerr.V("mime_type", mimeType))
	}
	return raw, mimeType, nil
}
