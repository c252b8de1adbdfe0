package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/phantomcommerce/phantom-backend/pkg/util"
)

var (
	ErrImageTooLarge       = errors.New("image exceeds the maximum size")
	ErrUnsupportedImage    = errors.New("unsupported image type")
	ErrContentTypeRejected = errors.New("content type is not allowed")
)

// AllowedImageTypes are the content types accepted for uploads.
var AllowedImageTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
}

// ValidateContentType accepts only the allowed types.
func ValidateContentType(contentType string, allowedTypes []string) error {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, allowed := range allowedTypes {
		if contentType == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrContentTypeRejected, contentType)
}

// ValidateFileSize rejects sizes above maxSize. A maxSize of zero disables the check.
func ValidateFileSize(size, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return ErrImageTooLarge
	}
	return nil
}

// ImageStore persists images received as data URLs. Values that are not
// data URLs are treated as already-hosted references and returned as is.
type ImageStore interface {
	// Store saves image under folder. name is the object name without
	// extension; empty picks a random one.
	Store(ctx context.Context, folder, name, image string) (string, error)
}

type inlineImageStore struct {
	maxBytes int64
}

// NewInlineImageStore keeps validated data URLs in the record itself.
func NewInlineImageStore(maxBytes int64) ImageStore {
	return &inlineImageStore{maxBytes: maxBytes}
}

func (s *inlineImageStore) Store(ctx context.Context, folder, name, image string) (string, error) {
	if !util.IsDataURL(image) {
		return image, nil
	}
	if _, err := decodeImage(image, s.maxBytes); err != nil {
		return "", err
	}
	return image, nil
}

type s3ImageStore struct {
	storage  *S3Storage
	maxBytes int64
}

// NewS3ImageStore uploads data URLs to S3 and stores the object URL.
func NewS3ImageStore(storage *S3Storage, maxBytes int64) ImageStore {
	return &s3ImageStore{storage: storage, maxBytes: maxBytes}
}

func (s *s3ImageStore) Store(ctx context.Context, folder, name, image string) (string, error) {
	if !util.IsDataURL(image) {
		return image, nil
	}
	decoded, err := decodeImage(image, s.maxBytes)
	if err != nil {
		return "", err
	}

	var key string
	if name == "" {
		key = s.storage.newKey(folder, decoded.Extension())
	} else {
		key = fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), name, decoded.Extension())
	}

	url, err := s.storage.Upload(ctx, key, decoded.ContentType, decoded.Data)
	if err != nil {
		logger.Error("Failed to upload image", err, map[string]interface{}{
			"key":          key,
			"content_type": decoded.ContentType,
			"size":         len(decoded.Data),
		})
		return "", err
	}

	logger.Debug("Image uploaded", map[string]interface{}{
		"key":  key,
		"size": len(decoded.Data),
	})
	return url, nil
}

func decodeImage(image string, maxBytes int64) (*util.DataURL, error) {
	decoded, err := util.ParseDataURL(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if err := ValidateContentType(decoded.ContentType, AllowedImageTypes); err != nil {
		return nil, ErrUnsupportedImage
	}
	if err := ValidateFileSize(int64(len(decoded.Data)), maxBytes); err != nil {
		return nil, err
	}
	return decoded, nil
}
