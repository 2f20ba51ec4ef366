// Package storage persists validated media on one of several backends
// selected by configuration.
package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/validation"
)

// Observer is notified after every storage operation.
type Observer interface {
	ObserveStorage(provider, op string, err error)
}

// Facade hands uploads and deletes to the provider selected by
// configuration. The provider is built once, on first use, and kept for the
// life of the process.
//
// Facade does not inspect content. Callers must validate media before
// calling UploadFile.
type Facade struct {
	cfg      mediaguard.StorageConfig
	logger   *slog.Logger
	validate *validation.Validator
	observer Observer

	build func(mediaguard.StorageConfig, *slog.Logger) (mediaguard.StorageProvider, error)

	once     sync.Once
	provider mediaguard.StorageProvider
	err      error
}

// Option configures a Facade.
type Option func(*Facade)

// WithObserver reports every operation to o.
func WithObserver(o Observer) Option {
	return func(f *Facade) { f.observer = o }
}

// WithProvider makes the facade use p instead of building one from config.
func WithProvider(p mediaguard.StorageProvider) Option {
	return func(f *Facade) {
		f.build = func(mediaguard.StorageConfig, *slog.Logger) (mediaguard.StorageProvider, error) {
			return p, nil
		}
	}
}

// NewFacade creates a facade for cfg. No provider is constructed until the
// first call that needs one.
func NewFacade(cfg mediaguard.StorageConfig, logger *slog.Logger, opts ...Option) *Facade {
	f := &Facade{
		cfg:      cfg,
		logger:   logger,
		validate: validation.NewValidator(),
		build:    NewProvider,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewProvider returns the provider named by cfg.Provider. Remote providers
// defer client construction, and with it credential checks, to first use.
func NewProvider(cfg mediaguard.StorageConfig, logger *slog.Logger) (mediaguard.StorageProvider, error) {
	switch cfg.Provider {
	case mediaguard.ProviderLocal:
		return NewLocalProvider(cfg.LocalRoot, cfg.LocalURLPrefix), nil
	case mediaguard.ProviderAzure:
		return NewAzureProvider(cfg, logger), nil
	case mediaguard.ProviderS3:
		return NewS3Provider(cfg, logger), nil
	case mediaguard.ProviderREST:
		return NewRESTProvider(cfg, logger, nil), nil
	default:
		return nil, mediaguard.Config("unknown storage provider %q", cfg.Provider)
	}
}

// Provider returns the memoized provider, building it on the first call.
// Concurrent first callers block until construction finishes.
func (f *Facade) Provider() (mediaguard.StorageProvider, error) {
	f.once.Do(func() {
		f.provider, f.err = f.build(f.cfg, f.logger)
		if f.err != nil {
			f.logger.Error("storage provider unavailable",
				slog.String("provider", f.cfg.Provider),
				slog.String("error", f.err.Error()))
			return
		}
		f.logger.Info("initialized storage provider",
			slog.String("provider", f.provider.Name()))
	})
	return f.provider, f.err
}

// Ready builds the provider and, for remote providers, its client, without
// making any network call. It reports configuration problems early.
func (f *Facade) Ready() error {
	p, err := f.Provider()
	if err != nil {
		return err
	}
	if r, ok := p.(interface{ Ready() error }); ok {
		return r.Ready()
	}
	return nil
}

type objectRef struct {
	Folder   string `validate:"required,folder"`
	Filename string `validate:"required,safename"`
}

// UploadFile stores data and returns its public URL.
func (f *Facade) UploadFile(ctx context.Context, data []byte, filename, contentType, folder string) (string, error) {
	if err := f.validate.Validate(objectRef{Folder: folder, Filename: filename}); err != nil {
		return "", err
	}

	p, err := f.Provider()
	if err != nil {
		return "", err
	}

	url, err := p.Upload(ctx, data, filename, contentType, folder)
	f.observe(p.Name(), "upload", err)
	if err != nil {
		f.logger.Error("upload failed",
			slog.String("provider", p.Name()),
			slog.String("folder", folder),
			slog.String("error", err.Error()))
		return "", err
	}

	f.logger.Info("file uploaded",
		slog.String("provider", p.Name()),
		slog.String("url", url),
		slog.Int("size", len(data)))
	return url, nil
}

// DeleteFile removes the object that url points to.
func (f *Facade) DeleteFile(ctx context.Context, url string) error {
	p, err := f.Provider()
	if err != nil {
		return err
	}

	err = p.Delete(ctx, url)
	f.observe(p.Name(), "delete", err)
	if err != nil {
		f.logger.Warn("delete failed",
			slog.String("provider", p.Name()),
			slog.String("url", url),
			slog.String("error", err.Error()))
		return err
	}

	f.logger.Info("file deleted",
		slog.String("provider", p.Name()),
		slog.String("url", url))
	return nil
}

func (f *Facade) observe(provider, op string, err error) {
	if f.observer != nil {
		f.observer.ObserveStorage(provider, op, err)
	}
}
