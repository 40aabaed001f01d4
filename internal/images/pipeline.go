// Package images implements the inline-image pipeline: decode, flatten,
// downscale, JPEG re-encode, content-hashed naming and upload.
package images

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
)

// maxDimension is the longest edge allowed before an image is downscaled.
const maxDimension = 1200

// jpegQuality is the fixed re-encoding quality.
const jpegQuality = 60

// blobPrefix is the path prefix every uploaded campaign image lives under.
const blobPrefix = "mail_campaigns"

// CompressionError reports a failure to decode or re-encode an image.
// It is distinct from upload failures so the orchestrator can tell the
// two apart when logging skipped images.
type CompressionError struct {
	Err error
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("failed to compress image: %v", e.Err)
}

func (e *CompressionError) Unwrap() error { return e.Err }

// BlobUploader uploads a named blob and returns its public URL.
type BlobUploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// Processor compresses inline images and uploads them to blob storage.
type Processor struct {
	Store BlobUploader

	// Now is the clock used for blob name timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Process runs one image through the pipeline and returns its destination
// URL. index is the image's 1-based order of appearance in the HTML body.
func (p *Processor) Process(ctx context.Context, data []byte, contentType, baseName string, index int) (string, error) {
	compressed, err := Compress(data)
	if err != nil {
		return "", err
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	name := BlobName(baseName, index, now(), compressed, contentType)

	url, err := p.Store.Upload(ctx, name, compressed)
	if err != nil {
		return "", err
	}
	return url, nil
}

// Compress decodes an image, flattens any transparency onto a white
// background, downscales it so the longer dimension does not exceed 1200
// pixels, and re-encodes it as JPEG at quality 60.
func Compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &CompressionError{Err: err}
	}

	// JPEG has no alpha channel; composite transparent images onto white.
	if !isOpaque(img) {
		bounds := img.Bounds()
		background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
		img = imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, &CompressionError{Err: err}
	}

	slog.Debug("compressed image",
		"before_bytes", len(data),
		"after_bytes", buf.Len(),
	)

	return buf.Bytes(), nil
}

// BlobName builds the deterministic blob name for a compressed image:
// {prefix}/{base}_{index}_{timestamp}_{first 8 hex chars of MD5}{ext}.
// The extension reflects the image's original MIME type even though the
// uploaded bytes are always JPEG.
func BlobName(baseName string, index int, ts time.Time, compressed []byte, contentType string) string {
	sum := md5.Sum(compressed)
	hash := fmt.Sprintf("%x", sum)[:8]
	return fmt.Sprintf("%s/%s_%d_%s_%s%s",
		blobPrefix, baseName, index, ts.Format("20060102_150405"), hash, extensionForType(contentType))
}

// extensionForType maps an image MIME type to a file extension, defaulting
// to .jpg for unknown types.
func extensionForType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	default:
		return ".jpg"
	}
}

// isOpaque reports whether the image has no transparent pixels. Images whose
// type cannot report opacity are treated as transparent and flattened.
func isOpaque(img image.Image) bool {
	o, ok := img.(interface{ Opaque() bool })
	return ok && o.Opaque()
}
