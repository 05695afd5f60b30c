// Package storage provides S3-compatible object storage for lead photos and company logos.
package storage

import (
	"context"
	"time"

	"treeleads/platform/apperr"
)

// PresignedURL contains the URL and metadata for a presigned upload/download operation.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService defines the object storage operations the modules use.
type StorageService interface {
	// GenerateUploadURL validates the file and returns a presigned PUT URL
	// for a unique key under folder.
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)

	// GenerateDownloadURL creates a presigned GET URL.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

// Disabled is used when no object store is configured. Uploads are refused and
// downloads return nothing, so leads without photos keep working.
type Disabled struct{}

func (Disabled) GenerateUploadURL(context.Context, string, string, string, string, int64) (*PresignedURL, error) {
	return nil, apperr.Unavailable("file uploads are not configured")
}

func (Disabled) GenerateDownloadURL(context.Context, string, string) (*PresignedURL, error) {
	return nil, apperr.Unavailable("file storage is not configured")
}

func (Disabled) DeleteObject(context.Context, string, string) error { return nil }

func (Disabled) EnsureBucketExists(context.Context, string) error { return nil }

var (
	_ StorageService = (*MinIOService)(nil)
	_ StorageService = Disabled{}
)
