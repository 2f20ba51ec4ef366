package http

import (
	"io"
	"log/slog"

	"github.com/dukerupert/mediaguard"
	"github.com/dukerupert/mediaguard/internal/media"
	"github.com/labstack/echo/v4"
)

// handleUploadMedia accepts a multipart upload in field "file" and stores it
// under the folder named in the path. The optional "category" form field is
// "image", "video" or "auto" (the default).
func (s *Server) handleUploadMedia(c echo.Context) error {
	ctx := c.Request().Context()

	category := mediaguard.Category(c.FormValue("category"))
	switch category {
	case "", media.CategoryAuto, mediaguard.CategoryImage, mediaguard.CategoryVideo:
	default:
		return mediaguard.Invalid("category must be image, video or auto")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return mediaguard.Invalid("file is required")
	}

	limit := s.mediaService.MaxBytes(mediaguard.CategoryVideo)
	if category == mediaguard.CategoryImage {
		limit = s.mediaService.MaxBytes(mediaguard.CategoryImage)
	}
	if file.Size > limit {
		return media.ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return mediaguard.Internal("Failed to read uploaded file", err)
	}
	defer src.Close()

	// One byte past the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return mediaguard.Internal("Failed to read uploaded file", err)
	}

	result, err := s.mediaService.Ingest(ctx, category, mediaguard.UploadTarget{
		Data:         data,
		OriginalName: file.Filename,
		ContentType:  file.Header.Get("Content-Type"),
		Folder:       c.Param("folder"),
	})
	if err != nil {
		return err
	}

	s.log(c).Info("media uploaded",
		slog.String("url", result.URL),
		slog.String("format", result.Format),
		slog.Int("size", result.Size),
	)

	return RespondCreated(c, result)
}

// handleDeleteMedia deletes the object named by the "url" query parameter.
func (s *Server) handleDeleteMedia(c echo.Context) error {
	url := c.QueryParam("url")
	if err := s.mediaService.Remove(c.Request().Context(), url); err != nil {
		return err
	}

	s.log(c).Info("media deleted", slog.String("url", url))
	return RespondNoContent(c)
}
