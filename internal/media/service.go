// Package media stores uploaded images and returns their public URLs.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	// Register GIF and PNG decoders.
	_ "image/gif"
	_ "image/png"

	"shutterdesk/internal/config"
	"shutterdesk/internal/models"
	"shutterdesk/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "/tmp/shutterdesk/uploads"
	DefaultMaxUploadSizeMB = 10
	DefaultPublicBaseURL   = "/media"
	MasterMaxSize          = 2048
	// MaxSourcePixels caps width*height of an upload before it is decoded.
	MaxSourcePixels        = 50_000_000
	JPEGQuality            = 82
	WebPQuality            = 70
)

// UploadInput is a single image upload.
type UploadInput struct {
	UploaderID  string
	Filename    string
	ContentType string
	Content     []byte
}

// Upload describes a stored image.
type Upload struct {
	Hash      string `json:"hash"`
	URL       string `json:"url"`
	WebPURL   string `json:"webp_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type"`
}

// Service normalises uploads and writes them under a content-addressed directory.
type Service struct {
	uploadDir          string
	publicBaseURL      string
	maxUploadSizeBytes int64
}

// NewService creates a Service from cfg; zero values fall back to defaults.
func NewService(cfg *config.Config) *Service {
	uploadDir := DefaultUploadDir
	baseURL := DefaultPublicBaseURL
	maxUploadSizeMB := DefaultMaxUploadSizeMB

	if cfg != nil {
		if cfg.MediaUploadDir != "" {
			uploadDir = cfg.MediaUploadDir
		}
		if cfg.MediaPublicBaseURL != "" {
			baseURL = strings.TrimRight(cfg.MediaPublicBaseURL, "/")
		}
		if cfg.MediaMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.MediaMaxUploadSizeMB
		}
	}

	return &Service{
		uploadDir:          uploadDir,
		publicBaseURL:      baseURL,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is the directory files are written to.
func (s *Service) UploadDir() string { return s.uploadDir }

// PublicBaseURL is the prefix every returned URL starts with.
func (s *Service) PublicBaseURL() string { return s.publicBaseURL }

// MaxUploadSizeBytes is the largest accepted upload.
func (s *Service) MaxUploadSizeBytes() int64 { return s.maxUploadSizeBytes }

// Upload validates, downsizes and stores an image as a JPEG master plus a WebP copy.
// Identical content from the same uploader resolves to the same URL.
func (s *Service) Upload(ctx context.Context, in UploadInput) (up *Upload, err error) {
	span, _ := observability.NewSpan(ctx, "media.Upload")
	defer span.End()
	defer func() {
		span.SetError(err)
		result := "ok"
		if err != nil {
			result = strings.ToLower(models.ErrorCode(err))
		}
		observability.MediaUploads.WithLabelValues(result).Inc()
	}()

	if in.UploaderID == "" {
		return nil, models.NewValidationError("Invalid uploader")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, models.NewValidationError(fmt.Sprintf("Image dimensions too large (max %d megapixels)", MaxSourcePixels/1_000_000))
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	master := flatten(resizeToFit(decoded, MasterMaxSize, MasterMaxSize))

	encodedJPG, err := encodeJPEG(master, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(master, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := contentHash(in.UploaderID, encodedJPG)
	jpgAbs := filepath.Join(s.uploadDir, hash, "master.jpg")
	webpAbs := filepath.Join(s.uploadDir, hash, "master.webp")

	if err := writeBytesToFile(jpgAbs, encodedJPG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, encodedWebP); err != nil {
		_ = os.Remove(jpgAbs)
		return nil, models.NewInternalError(err)
	}

	b := master.Bounds()
	return &Upload{
		Hash:      hash,
		URL:       s.URLFor(hash, "master.jpg"),
		WebPURL:   s.URLFor(hash, "master.webp"),
		Width:     b.Dx(),
		Height:    b.Dy(),
		SizeBytes: int64(len(encodedJPG)),
		MimeType:  "image/jpeg",
	}, nil
}

// URLFor builds the public URL of a stored file.
func (s *Service) URLFor(hash, file string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, hash, file)
}

// ResolvePath returns the on-disk path of a stored file, rejecting anything
// that is not a known hash and file name.
func (s *Service) ResolvePath(hash, file string) (string, error) {
	if !isValidHash(hash) || (file != "master.jpg" && file != "master.webp") {
		return "", models.NewNotFoundError("Media", hash+"/"+file)
	}
	p := filepath.Join(s.uploadDir, hash, file)
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return "", models.NewNotFoundError("Media", hash+"/"+file)
		}
		return "", models.NewInternalError(err)
	}
	return p, nil
}

func isValidHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// flatten composites src over white so transparent areas survive JPEG encoding.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

func contentHash(uploaderID string, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:", uploaderID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
