package mock

import (
	"context"
	"sync"

	"github.com/dukerupert/mediaguard"
)

// Compile-time interface check
var _ mediaguard.StorageProvider = (*StorageProvider)(nil)

// StorageProvider is a mock implementation of mediaguard.StorageProvider.
// It records every upload and delete it receives.
type StorageProvider struct {
	UploadFn func(ctx context.Context, data []byte, filename, contentType, folder string) (string, error)
	DeleteFn func(ctx context.Context, url string) error
	NameFn   func() string

	mu      sync.Mutex
	Uploads []Upload
	Deletes []string
}

// Upload is one recorded Upload call.
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
	Folder      string
}

func (s *StorageProvider) Upload(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	s.mu.Lock()
	s.Uploads = append(s.Uploads, Upload{Data: data, Filename: filename, ContentType: contentType, Folder: folder})
	s.mu.Unlock()

	if s.UploadFn != nil {
		return s.UploadFn(ctx, data, filename, contentType, folder)
	}
	return "https://mock-storage.example.com/" + folder + "/" + filename, nil
}

func (s *StorageProvider) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	s.Deletes = append(s.Deletes, url)
	s.mu.Unlock()

	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, url)
	}
	return nil
}

func (s *StorageProvider) Name() string {
	if s.NameFn != nil {
		return s.NameFn()
	}
	return "mock"
}

// UploadCount returns the number of Upload calls received.
func (s *StorageProvider) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Uploads)
}
