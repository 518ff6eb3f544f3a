package storage

import (
	"context"
	"errors"
	"io"
)

// UploadResult describes a stored object. Location is the public URL clients
// can fetch it from.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores generated artifacts (schedule exports) in object
// storage.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// DisabledUploader stands in when no object storage is configured. Every
// upload fails with a clear error instead of a nil dereference.
type DisabledUploader struct{}

func (DisabledUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	return nil, errors.New("object storage is not configured")
}

func (DisabledUploader) Delete(ctx context.Context, key string) error {
	return errors.New("object storage is not configured")
}

func (DisabledUploader) GetPublicURL(key string) string { return "" }
