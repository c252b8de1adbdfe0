package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data url")

// DataURL is a decoded "data:<mime>;base64,<payload>" value.
type DataURL struct {
	ContentType string
	Data        []byte
}

// IsDataURL reports whether s looks like an inline data URL.
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL decodes a base64 data URL. Non-base64 data URLs are rejected.
func ParseDataURL(s string) (*DataURL, error) {
	if !IsDataURL(s) {
		return nil, ErrInvalidDataURL
	}

	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, ErrInvalidDataURL
	}

	contentType, encoding, _ := strings.Cut(meta, ";")
	if encoding != "base64" {
		return nil, ErrInvalidDataURL
	}
	if contentType == "" {
		contentType = "text/plain"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidDataURL
	}

	return &DataURL{ContentType: strings.ToLower(contentType), Data: data}, nil
}

// Extension maps an image content type to a file extension.
func (d *DataURL) Extension() string {
	switch d.ContentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
