// Package media is the single path by which uploaded bytes reach storage.
// Every upload is checked against the content rules, renamed, and only then
// handed to the storage facade.
package media

import (
	"context"
	"log/slog"
	"path"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/naming"
	"github.com/dukerupert/mediaguard/internal/validation"
	"github.com/gabriel-vasile/mimetype"
)

// Default size limits.
const (
	DefaultMaxImageBytes int64 = 5 << 20
	DefaultMaxVideoBytes int64 = 100 << 20
)

// CategoryAuto selects the category from the claimed content type.
const CategoryAuto mediaguard.Category = "auto"

// ErrTooLarge is returned when an upload exceeds its category's size limit.
var ErrTooLarge = mediaguard.Invalid("file too large")

// Storage persists named blobs. *storage.Facade implements it.
type Storage interface {
	UploadFile(ctx context.Context, data []byte, filename, contentType, folder string) (string, error)
	DeleteFile(ctx context.Context, url string) error
}

// Observer is notified of every validation decision.
type Observer interface {
	ObserveValidation(category, result, reason string)
}

// Config controls what the service accepts.
type Config struct {
	MaxImageBytes int64
	MaxVideoBytes int64

	// Folders lists the folders uploads may target. Empty allows any
	// well-formed folder.
	Folders []string

	// Content holds the per-category allow-lists.
	Content validation.Content
}

// IngestResult describes a stored upload.
type IngestResult struct {
	URL         string                  `json:"url"`
	Filename    string                  `json:"filename"`
	ContentType string                  `json:"content_type"`
	Detected    mediaguard.DetectedType `json:"-"`
	Format      string                  `json:"format"`
	Size        int                     `json:"size"`
}

// Service validates and stores media.
type Service struct {
	cfg      Config
	folders  map[string]struct{}
	storage  Storage
	validate *validation.Validator
	logger   *slog.Logger
	observer Observer
}

// NewService creates a media service. Zero size limits select the defaults.
func NewService(cfg Config, store Storage, logger *slog.Logger, observer Observer) *Service {
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.MaxVideoBytes <= 0 {
		cfg.MaxVideoBytes = DefaultMaxVideoBytes
	}

	var folders map[string]struct{}
	if len(cfg.Folders) > 0 {
		folders = make(map[string]struct{}, len(cfg.Folders))
		for _, f := range cfg.Folders {
			folders[f] = struct{}{}
		}
	}

	return &Service{
		cfg:      cfg,
		folders:  folders,
		storage:  store,
		validate: validation.NewValidator(),
		logger:   logger,
		observer: observer,
	}
}

// MaxBytes returns the size limit for category.
func (s *Service) MaxBytes(category mediaguard.Category) int64 {
	if category == mediaguard.CategoryVideo {
		return s.cfg.MaxVideoBytes
	}
	return s.cfg.MaxImageBytes
}

// Ingest validates target as media of the given category and stores it under
// a generated name. CategoryAuto or "" picks the category from the claimed
// type. Rejected uploads never reach storage.
func (s *Service) Ingest(ctx context.Context, category mediaguard.Category, target mediaguard.UploadTarget) (*IngestResult, error) {
	if err := s.validate.Validate(target); err != nil {
		return nil, err
	}
	if s.folders != nil {
		if _, ok := s.folders[target.Folder]; !ok {
			return nil, mediaguard.Invalid("folder %q is not accepted", target.Folder)
		}
	}

	if category == "" || category == CategoryAuto {
		c, ok := mediaguard.CategoryOf(target.ContentType)
		if !ok {
			s.reject(category, target, mediaguard.Verdict{Err: validation.ErrNotMedia})
			return nil, validation.ErrNotMedia
		}
		category = c
	}

	if int64(len(target.Data)) > s.MaxBytes(category) {
		s.observe(category, "rejected", "too_large")
		s.logger.Warn("upload rejected",
			slog.String("category", string(category)),
			slog.String("original_name", target.OriginalName),
			slog.Int("size", len(target.Data)),
			slog.String("reason", "too_large"))
		return nil, ErrTooLarge
	}

	verdict := s.cfg.Content.For(category, target.Data, target.ContentType)
	if !verdict.Valid {
		s.reject(category, target, verdict)
		return nil, verdict.Err
	}
	s.observe(category, "accepted", "")

	contentType := mediaguard.NormalizeMIME(target.ContentType)
	filename := naming.Generate(target.OriginalName, contentType)

	url, err := s.storage.UploadFile(ctx, target.Data, filename, contentType, target.Folder)
	if err != nil {
		return nil, err
	}

	// Remote providers choose their own object key, so the stored name is
	// taken from the URL rather than the generated filename.
	return &IngestResult{
		URL:         url,
		Filename:    path.Base(url),
		ContentType: contentType,
		Detected:    verdict.Detected,
		Format:      verdict.Detected.String(),
		Size:        len(target.Data),
	}, nil
}

// Remove deletes a previously stored upload.
func (s *Service) Remove(ctx context.Context, url string) error {
	if url == "" {
		return mediaguard.Invalid("url is required")
	}
	return s.storage.DeleteFile(ctx, url)
}

// reject records a failed validation. The mimetype guess is diagnostic only
// and plays no part in the decision.
func (s *Service) reject(category mediaguard.Category, target mediaguard.UploadTarget, v mediaguard.Verdict) {
	reason := validation.Reason(v.Err)
	s.observe(category, "rejected", reason)
	s.logger.Warn("upload rejected",
		slog.String("category", string(category)),
		slog.String("original_name", target.OriginalName),
		slog.String("claimed", target.ContentType),
		slog.String("detected", v.Detected.String()),
		slog.String("hint", mimetype.Detect(target.Data).String()),
		slog.String("reason", reason))
}

func (s *Service) observe(category mediaguard.Category, result, reason string) {
	if s.observer != nil {
		s.observer.ObserveValidation(string(category), result, reason)
	}
}
