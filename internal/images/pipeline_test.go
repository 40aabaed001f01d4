package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"
)

// encodePNG renders a solid-color PNG of the given size.
func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
	return img
}

func TestCompress_DownscalesOversizedImage(t *testing.T) {
	t.Parallel()

	data := encodePNG(t, 2000, 1000, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := decodeJPEG(t, compressed)
	bounds := out.Bounds()
	if bounds.Dx() != 1200 || bounds.Dy() != 600 {
		t.Errorf("dimensions: got %dx%d, want 1200x600", bounds.Dx(), bounds.Dy())
	}
}

func TestCompress_KeepsSmallImageSize(t *testing.T) {
	t.Parallel()

	data := encodePNG(t, 400, 300, color.NRGBA{R: 10, G: 200, B: 10, A: 255})

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := decodeJPEG(t, compressed)
	bounds := out.Bounds()
	if bounds.Dx() != 400 || bounds.Dy() != 300 {
		t.Errorf("dimensions: got %dx%d, want 400x300", bounds.Dx(), bounds.Dy())
	}
}

func TestCompress_FlattensTransparencyOntoWhite(t *testing.T) {
	t.Parallel()

	// Fully transparent pixels must come out white, not black.
	data := encodePNG(t, 8, 8, color.NRGBA{R: 0, G: 0, B: 0, A: 0})

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := decodeJPEG(t, compressed)
	r, g, b, _ := out.At(4, 4).RGBA()
	// JPEG is lossy; accept near-white.
	const min = 0xf000
	if r < min || g < min || b < min {
		t.Errorf("center pixel: got rgb(%d, %d, %d), want near-white", r>>8, g>>8, b>>8)
	}
}

func TestCompress_InvalidData(t *testing.T) {
	t.Parallel()

	_, err := Compress([]byte("definitely not an image"))
	var compErr *CompressionError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompressionError, got %v", err)
	}
}

func TestBlobName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	data := []byte("compressed-bytes")

	got := BlobName("newsletter", 2, ts, data, "image/png")

	// md5("compressed-bytes") = b50b7b6c...
	want := "mail_campaigns/newsletter_2_20240315_143000_b50b7b6c.png"
	if got != want {
		t.Errorf("BlobName: got %q, want %q", got, want)
	}
}

func TestBlobName_Extensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		wantExt     string
	}{
		{contentType: "image/png", wantExt: ".png"},
		{contentType: "image/gif", wantExt: ".gif"},
		{contentType: "image/webp", wantExt: ".webp"},
		{contentType: "image/jpeg", wantExt: ".jpg"},
		{contentType: "image/x-unknown", wantExt: ".jpg"},
		{contentType: "", wantExt: ".jpg"},
	}

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			t.Parallel()
			got := BlobName("base", 1, ts, []byte("x"), tt.contentType)
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("BlobName: got %q, want suffix %q", got, tt.wantExt)
			}
		})
	}
}

// fakeUploader records uploads and returns deterministic URLs.
type fakeUploader struct {
	names []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, name string, _ []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	return "https://cdn.example.com/" + name, nil
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	store := &fakeUploader{}
	p := &Processor{
		Store: store,
		Now:   func() time.Time { return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC) },
	}

	data := encodePNG(t, 10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	url, err := p.Process(context.Background(), data, "image/png", "promo", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.names) != 1 {
		t.Fatalf("uploads: got %d, want 1", len(store.names))
	}
	wantPrefix := "mail_campaigns/promo_1_20240315_143000_"
	if !strings.HasPrefix(store.names[0], wantPrefix) {
		t.Errorf("blob name: got %q, want prefix %q", store.names[0], wantPrefix)
	}
	if want := "https://cdn.example.com/" + store.names[0]; url != want {
		t.Errorf("url: got %q, want %q", url, want)
	}
}

func TestProcessor_ProcessUploadFailure(t *testing.T) {
	t.Parallel()

	wantErr := fmt.Errorf("upload exploded")
	p := &Processor{Store: &fakeUploader{err: wantErr}}

	data := encodePNG(t, 10, 10, color.NRGBA{A: 255})
	if _, err := p.Process(context.Background(), data, "image/png", "promo", 1); !errors.Is(err, wantErr) {
		t.Errorf("expected upload error to propagate, got %v", err)
	}
}
