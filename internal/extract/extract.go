// Package extract converts a raw .eml file into a cleaned, CDN-hosted HTML
// campaign body: it locates the HTML part, pushes each referenced inline
// image through the compression/upload pipeline, rewrites the references
// and writes the wrapped document to disk.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shineum/sendgrid-campaigns/internal/eml"
	"github.com/shineum/sendgrid-campaigns/internal/images"
	"github.com/shineum/sendgrid-campaigns/internal/sanitize"
)

// ErrNoHTMLContent is returned when the message has no HTML body part.
var ErrNoHTMLContent = errors.New("no HTML content found in the email")

// Extractor runs the email-to-campaign HTML pipeline.
type Extractor struct {
	Images *images.Processor
}

// New creates an Extractor uploading images through the given store.
func New(store images.BlobUploader) *Extractor {
	return &Extractor{Images: &images.Processor{Store: store}}
}

// Run extracts the HTML body from the .eml file at emlPath, rewrites its
// inline images to uploaded CDN URLs, and writes the sanitized document to
// outPath, creating parent directories as needed. It returns the output
// path. Per-image failures are logged and skipped; the affected element
// keeps its cid: reference.
func (e *Extractor) Run(ctx context.Context, emlPath, outPath string) (string, error) {
	raw, err := os.ReadFile(emlPath)
	if err != nil {
		return "", fmt.Errorf("failed to read eml file: %w", err)
	}

	msg, err := eml.Parse(raw)
	if err != nil {
		return "", err
	}
	if msg.HTMLBody == "" {
		return "", ErrNoHTMLContent
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg.HTMLBody))
	if err != nil {
		return "", fmt.Errorf("failed to parse html body: %w", err)
	}

	sanitize.DisableClickTracking(doc)

	baseName := baseFilename(outPath)
	processed := 0

	// Sequence indexes follow order of appearance in the HTML, and only
	// advance for cid: references with a matching image part.
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if !strings.HasPrefix(src, "cid:") {
			return
		}
		cid := strings.TrimPrefix(src, "cid:")
		part, ok := msg.InlineImages[cid]
		if !ok {
			return
		}

		url, err := e.Images.Process(ctx, part.Data, part.ContentType, baseName, processed+1)
		if err != nil {
			slog.Warn("failed to process image, leaving reference unrewritten",
				"content_id", cid,
				"error", err,
			)
			return
		}

		sanitize.RewriteImage(img, url)
		slog.Info("processed image", "content_id", cid, "url", url)
		processed++
	})

	output, err := sanitize.WrapDocument(doc)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(outPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, []byte(output), 0o644); err != nil {
		return "", fmt.Errorf("failed to write html file: %w", err)
	}

	slog.Info("generated html file", "path", outPath, "images_processed", processed)
	return outPath, nil
}

var (
	nonWordChars   = regexp.MustCompile(`[^\w\s-]`)
	dashWhitespace = regexp.MustCompile(`[-\s]+`)
)

// baseFilename derives the image base name from the output path: the file
// name without extension, with non-word characters collapsed to underscores.
func baseFilename(outPath string) string {
	base := filepath.Base(outPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = nonWordChars.ReplaceAllString(base, "_")
	base = dashWhitespace.ReplaceAllString(base, "_")
	return strings.Trim(base, "_")
}
