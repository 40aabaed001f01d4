// Package azure uploads campaign images to Azure Blob Storage and builds
// their public CDN URLs.
package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// StorageError reports a failed blob upload.
type StorageError struct {
	Blob string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to upload blob %q: %v", e.Blob, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Config holds the storage account settings for the CDN container.
type Config struct {
	AccountName   string
	AccountKey    string
	ContainerName string
	BlobPath      string
}

// Store uploads blobs to a single container using shared-key credentials.
type Store struct {
	client *azblob.Client
	cfg    Config
}

// New creates a Store for the configured storage account.
func New(cfg Config) (*Store, error) {
	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Store{client: client, cfg: cfg}, nil
}

// Upload writes data to the named blob, overwriting any existing blob, and
// returns its public URL. The configured blob path prefix is prepended to
// the name when set.
func (s *Store) Upload(ctx context.Context, name string, data []byte) (string, error) {
	blobPath := name
	if s.cfg.BlobPath != "" {
		blobPath = s.cfg.BlobPath + "/" + name
	}

	if _, err := s.client.UploadBuffer(ctx, s.cfg.ContainerName, blobPath, data, nil); err != nil {
		return "", &StorageError{Blob: blobPath, Err: err}
	}

	return s.BlobURL(name), nil
}

// BlobURL constructs the public URL for a blob name under the configured
// account, container and path prefix.
func (s *Store) BlobURL(name string) string {
	if s.cfg.BlobPath != "" {
		return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s/%s",
			s.cfg.AccountName, s.cfg.ContainerName, s.cfg.BlobPath, name)
	}
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s",
		s.cfg.AccountName, s.cfg.ContainerName, name)
}
