package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/dukerupert/mediaguard"
)

// blobAPI is the subset of *azblob.Client used by AzureProvider.
type blobAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
}

// Compile-time interface check
var _ mediaguard.StorageProvider = (*AzureProvider)(nil)

// AzureProvider implements mediaguard.StorageProvider for an Azure blob
// container, authenticating with the account's shared key.
type AzureProvider struct {
	cfg    mediaguard.StorageConfig
	logger *slog.Logger
	now    func() time.Time
	client func() (blobAPI, error)
}

// NewAzureProvider creates a blob container provider. Credentials are
// checked when the client is first needed.
func NewAzureProvider(cfg mediaguard.StorageConfig, logger *slog.Logger) *AzureProvider {
	p := &AzureProvider{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	p.client = sync.OnceValues(p.newClient)
	return p
}

// Name returns "azure".
func (p *AzureProvider) Name() string {
	return mediaguard.ProviderAzure
}

// Ready builds the client and reports any configuration error.
func (p *AzureProvider) Ready() error {
	_, err := p.client()
	return err
}

func (p *AzureProvider) newClient() (blobAPI, error) {
	cfg := p.cfg
	switch {
	case cfg.AzureAccount == "":
		return nil, mediaguard.Config("STORAGE_AZURE_ACCOUNT is required")
	case cfg.AzureKey == "":
		return nil, mediaguard.Config("STORAGE_AZURE_KEY is required")
	case cfg.AzureContainer == "":
		return nil, mediaguard.Config("STORAGE_AZURE_CONTAINER is required")
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AzureAccount, cfg.AzureKey)
	if err != nil {
		return nil, mediaguard.WrapError(mediaguard.ECONFIG, "invalid Azure shared key", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(p.serviceURL(), cred, nil)
	if err != nil {
		return nil, mediaguard.WrapError(mediaguard.ECONFIG, "creating Azure blob client", err)
	}

	p.logger.Info("initialized Azure blob client",
		slog.String("account", cfg.AzureAccount),
		slog.String("container", cfg.AzureContainer))
	return client, nil
}

// Upload writes data to blob "{folder}/{unix}-{token}{ext}".
func (p *AzureProvider) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	client, err := p.client()
	if err != nil {
		return "", err
	}

	key := objectKey(folder, contentType, p.now())
	_, err = client.UploadBuffer(ctx, p.cfg.AzureContainer, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentType),
		},
	})
	if err != nil {
		return "", mediaguard.Unavailable("failed to upload to Azure", err)
	}

	return joinURL(p.baseURL(), key), nil
}

// Delete removes the blob rawURL points to. A blob that is already gone
// counts as deleted.
func (p *AzureProvider) Delete(ctx context.Context, rawURL string) error {
	client, err := p.client()
	if err != nil {
		return err
	}

	key, err := keyFromURL(p.baseURL(), rawURL)
	if err != nil {
		return err
	}

	if _, err := client.DeleteBlob(ctx, p.cfg.AzureContainer, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return mediaguard.Unavailable("failed to delete from Azure", err)
	}
	return nil
}

func (p *AzureProvider) serviceURL() string {
	if p.cfg.AzureEndpoint != "" {
		return strings.TrimRight(p.cfg.AzureEndpoint, "/") + "/"
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/", p.cfg.AzureAccount)
}

// baseURL is the public prefix for blob URLs: the configured public URL or
// the container URL.
func (p *AzureProvider) baseURL() string {
	if p.cfg.AzurePublicURL != "" {
		return strings.TrimRight(p.cfg.AzurePublicURL, "/")
	}
	return p.serviceURL() + p.cfg.AzureContainer
}
