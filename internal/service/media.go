package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"nutribunda/internal/config"
	"nutribunda/internal/models"
	"nutribunda/internal/observability"
	"nutribunda/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register the webp decoder
)

// DefaultMediaUploadDir is used when IMAGE_UPLOAD_DIR is not configured.
const DefaultMediaUploadDir = "/tmp/nutribunda/uploads/images"

const (
	// mediaMaxDimension caps the longest edge. Article covers and menu
	// photos render at phone width, nothing needs more.
	mediaMaxDimension = 1600
	mediaWebPQuality  = 70
)

// UploadMediaInput is one admin image upload.
type UploadMediaInput struct {
	UploaderID uint
	Filename   string
	Content    []byte
}

// MediaService converts admin uploads (article covers, menu photos) to a
// single WebP rendition on disk, deduplicated by content hash.
type MediaService struct {
	media          repository.MediaRepository
	uploadDir      string
	maxUploadBytes int64
	now            func() time.Time
}

// NewMediaService creates a MediaService.
func NewMediaService(media repository.MediaRepository, cfg *config.Config) *MediaService {
	uploadDir := DefaultMediaUploadDir
	maxUploadMB := 10
	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadMB = cfg.ImageMaxUploadSizeMB
		}
	}
	return &MediaService{
		media:          media,
		uploadDir:      uploadDir,
		maxUploadBytes: int64(maxUploadMB) << 20,
		now:            time.Now,
	}
}

// Upload validates, converts, and stores one image.
func (s *MediaService) Upload(ctx context.Context, input UploadMediaInput) (*models.MediaImage, error) {
	img, err := s.upload(ctx, input)
	if err != nil {
		observability.ImageUploads.WithLabelValues(observability.StatusError).Inc()
		return nil, err
	}
	observability.ImageUploads.WithLabelValues(observability.StatusOK).Inc()
	return img, nil
}

func (s *MediaService) upload(ctx context.Context, input UploadMediaInput) (*models.MediaImage, error) {
	if input.UploaderID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(input.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(input.Content)) > s.maxUploadBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes>>20))
	}
	if !isAllowedImageMIME(http.DetectContentType(input.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	// Hash the source bytes, not the encoding, so a re-upload dedupes even
	// after the encoder version changes.
	hash := mediaContentHash(input.Content)
	existing, err := s.media.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	decoded, _, err := image.Decode(bytes.NewReader(input.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	fitted := resizeToFit(decoded, mediaMaxDimension, mediaMaxDimension)
	encoded, err := encodeWebP(fitted, mediaWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	relPath := hash + ".webp"
	absPath := filepath.Join(s.uploadDir, relPath)
	if err := writeMediaFile(absPath, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	bounds := fitted.Bounds()
	img := &models.MediaImage{
		Hash:             hash,
		UploaderID:       input.UploaderID,
		OriginalFilename: input.Filename,
		SizeBytes:        int64(len(encoded)),
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
		Path:             relPath,
		UploadedAt:       s.now().UTC(),
	}
	if err := s.media.Create(ctx, img); err != nil {
		_ = os.Remove(absPath)
		return nil, err
	}
	return img, nil
}

// resizeToFit scales src down to fit within maxWidth x maxHeight, keeping
// the aspect ratio. Images already inside the box pass through untouched.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func mediaContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func writeMediaFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
