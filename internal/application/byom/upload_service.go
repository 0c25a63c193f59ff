package byom

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"go.uber.org/zap"
)

// Thumbnail defaults
const (
	DefaultThumbnailWidth   = 256
	DefaultThumbnailQuality = 80
)

// UploadConfig limits and shapes stored graphics
type UploadConfig struct {
	MaxBytes         int64
	ThumbnailWidth   int
	ThumbnailQuality int
}

// GraphicUploader validates user graphics and stores them with a thumbnail
type GraphicUploader struct {
	storage ObjectStorage
	config  UploadConfig
	logger  *zap.Logger
}

// NewGraphicUploader creates a new GraphicUploader
func NewGraphicUploader(storage ObjectStorage, cfg UploadConfig, logger *zap.Logger) *GraphicUploader {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = byom.MaxUploadBytes
	}
	if cfg.ThumbnailWidth <= 0 {
		cfg.ThumbnailWidth = DefaultThumbnailWidth
	}
	if cfg.ThumbnailQuality <= 0 || cfg.ThumbnailQuality > 100 {
		cfg.ThumbnailQuality = DefaultThumbnailQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphicUploader{storage: storage, config: cfg, logger: logger}
}

// Validate checks every upload before anything is stored
func (u *GraphicUploader) Validate(uploads []byom.Upload) error {
	return byom.ValidateUploads(uploads, u.config.MaxBytes)
}

// Store validates and stores uploads under the owner's prefix. When one
// upload fails, the objects stored so far are deleted again.
func (u *GraphicUploader) Store(ctx context.Context, ownerID uuid.UUID, uploads []byom.Upload) ([]byom.DesignFile, error) {
	if err := u.Validate(uploads); err != nil {
		return nil, err
	}
	files := make([]byom.DesignFile, 0, len(uploads))
	for _, up := range uploads {
		f, err := u.store(ctx, ownerID, up)
		if err != nil {
			u.Discard(ctx, files)
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func (u *GraphicUploader) store(ctx context.Context, ownerID uuid.UUID, up byom.Upload) (byom.DesignFile, error) {
	id := uuid.New()
	contentType := up.DetectedType()
	ext := up.Extension()
	f := byom.DesignFile{
		ID:          id,
		FileName:    up.FileName,
		ContentType: contentType,
		Size:        up.Size(),
		StorageKey:  fmt.Sprintf("designs/%s/%s%s", ownerID, id, ext),
	}
	if err := u.storage.Upload(ctx, f.StorageKey, up.Data, contentType); err != nil {
		return byom.DesignFile{}, fmt.Errorf("failed to store %s: %w", up.FileName, err)
	}
	f.URL = u.storage.PublicURL(f.StorageKey)

	thumb, err := u.thumbnail(up.Data, contentType)
	if err != nil {
		// the graphic itself is stored, a missing thumbnail only degrades listings
		u.logger.Warn("Thumbnail generation failed",
			zap.String("file_name", up.FileName),
			zap.Error(err),
		)
		return f, nil
	}
	thumbKey := fmt.Sprintf("designs/%s/%s_thumb%s", ownerID, id, ext)
	if err := u.storage.Upload(ctx, thumbKey, thumb, contentType); err != nil {
		_ = u.storage.DeleteObject(ctx, f.StorageKey)
		return byom.DesignFile{}, fmt.Errorf("failed to store thumbnail of %s: %w", up.FileName, err)
	}
	f.ThumbnailKey = thumbKey
	return f, nil
}

// thumbnail scales the graphic down to the configured width, keeping the
// aspect ratio and the source format
func (u *GraphicUploader) thumbnail(data []byte, contentType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > u.config.ThumbnailWidth {
		img = imaging.Resize(img, u.config.ThumbnailWidth, 0, imaging.Lanczos)
	}
	format := imaging.JPEG
	if contentType == "image/png" {
		format = imaging.PNG
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(u.config.ThumbnailQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Discard deletes stored files and their thumbnails. Failures are logged.
func (u *GraphicUploader) Discard(ctx context.Context, files []byom.DesignFile) {
	for _, f := range files {
		for _, key := range []string{f.StorageKey, f.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := u.storage.DeleteObject(ctx, key); err != nil {
				u.logger.Warn("Failed to delete stored graphic", zap.String("storage_key", key), zap.Error(err))
			}
		}
	}
}
