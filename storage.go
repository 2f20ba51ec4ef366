package mediaguard

import (
	"context"
)

// StorageProvider is implemented by every storage backend.
type StorageProvider interface {
	// Upload stores data under folder and returns its public URL.
	// The filename must already be a generated safe name.
	Upload(ctx context.Context, data []byte, filename, contentType, folder string) (url string, err error)

	// Delete removes the object that a previous Upload returned url for.
	// URLs not produced by this provider fail with EBADURL.
	Delete(ctx context.Context, url string) error

	// Name returns the provider selector value, e.g. "local".
	Name() string
}

// Provider selector values.
const (
	ProviderLocal = "local"
	ProviderAzure = "azure"
	ProviderS3    = "s3"
	ProviderREST  = "rest"
)

// UploadTarget describes one upload request.
type UploadTarget struct {
	Data []byte `validate:"required,min=1"`

	// OriginalName is the client-supplied filename. It is only ever logged.
	OriginalName string

	ContentType string `validate:"required"`

	// Folder is a trusted logical namespace such as "avatars" or "posts".
	Folder string `validate:"required,folder"`
}

// StorageConfig holds configuration for file storage.
type StorageConfig struct {
	// Provider is the storage provider ("local", "azure", "s3" or "rest").
	Provider string

	// Local storage configuration
	LocalRoot      string
	LocalURLPrefix string

	// Azure blob container configuration
	AzureAccount   string
	AzureKey       string
	AzureContainer string
	AzureEndpoint  string // Overrides https://{account}.blob.core.windows.net
	AzurePublicURL string

	// S3 storage configuration
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // S3-compatible services; enables path-style addressing
	S3PublicURL string

	// HTTP object API configuration
	RESTEndpoint  string
	RESTToken     string
	RESTUsername  string
	RESTPassword  string
	RESTPublicURL string
}
