package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeUploader records uploaded blob names and returns deterministic URLs.
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

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// buildEML assembles a multipart/related message with an HTML part and the
// given inline PNG images keyed by Content-ID.
func buildEML(t *testing.T, html string, inline map[string][]byte) []byte {
	t.Helper()

	var b strings.Builder
	write := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\r\n", args...)
	}

	write("From: sender@example.com")
	write("To: recipient@example.com")
	write("Subject: Campaign")
	write("MIME-Version: 1.0")
	write(`Content-Type: multipart/related; boundary="BOUNDARY"`)
	write("")
	write("--BOUNDARY")
	write(`Content-Type: text/html; charset="utf-8"`)
	write("")
	write("%s", html)

	for cid, data := range inline {
		write("--BOUNDARY")
		write("Content-Type: image/png")
		write("Content-Transfer-Encoding: base64")
		write("Content-ID: <%s>", cid)
		write("")
		write("%s", base64.StdEncoding.EncodeToString(data))
	}
	write("--BOUNDARY--")

	return []byte(b.String())
}

func writeEML(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "message.eml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write eml fixture: %v", err)
	}
	return path
}

func TestRun(t *testing.T) {
	t.Parallel()

	html := `<html><body><p>Hello</p><img src="cid:img1" width="10" height="10" border="0"></body></html>`
	emlPath := writeEML(t, buildEML(t, html, map[string][]byte{"img1": encodePNG(t)}))

	store := &fakeUploader{}
	outPath := filepath.Join(t.TempDir(), "Spring Promo.html")

	got, err := New(store).Run(context.Background(), emlPath, outPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != outPath {
		t.Errorf("returned path: got %q, want %q", got, outPath)
	}

	if len(store.names) != 1 {
		t.Fatalf("uploads: got %d, want 1", len(store.names))
	}
	if wantPrefix := "mail_campaigns/Spring_Promo_1_"; !strings.HasPrefix(store.names[0], wantPrefix) {
		t.Errorf("blob name: got %q, want prefix %q", store.names[0], wantPrefix)
	}

	output, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	content := string(output)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<p>Hello</p>",
		"https://cdn.example.com/" + store.names[0],
		`style="width:10px;height:10px"`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("output missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "cid:") {
		t.Errorf("output should not keep cid references:\n%s", content)
	}
	if strings.Contains(content, "border=") {
		t.Errorf("output should not keep stripped attributes:\n%s", content)
	}
}

func TestRun_DisablesClickTracking(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="https://example.com">link</a></body></html>`
	emlPath := writeEML(t, buildEML(t, html, nil))
	outPath := filepath.Join(t.TempDir(), "out.html")

	if _, err := New(&fakeUploader{}).Run(context.Background(), emlPath, outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(output), `clicktracking="off"`) {
		t.Errorf("anchors should carry clicktracking=off:\n%s", output)
	}
}

func TestRun_UploadFailureKeepsReference(t *testing.T) {
	t.Parallel()

	html := `<html><body><img src="cid:img1"></body></html>`
	emlPath := writeEML(t, buildEML(t, html, map[string][]byte{"img1": encodePNG(t)}))
	outPath := filepath.Join(t.TempDir(), "out.html")

	store := &fakeUploader{err: errors.New("upload exploded")}
	if _, err := New(store).Run(context.Background(), emlPath, outPath); err != nil {
		t.Fatalf("per-image failures should not fail the run: %v", err)
	}

	output, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(output), "cid:img1") {
		t.Errorf("failed image should keep its cid reference:\n%s", output)
	}
}

func TestRun_UnknownContentIDLeftAlone(t *testing.T) {
	t.Parallel()

	html := `<html><body><img src="cid:missing"></body></html>`
	emlPath := writeEML(t, buildEML(t, html, map[string][]byte{"img1": encodePNG(t)}))
	outPath := filepath.Join(t.TempDir(), "out.html")

	store := &fakeUploader{}
	if _, err := New(store).Run(context.Background(), emlPath, outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.names) != 0 {
		t.Errorf("uploads: got %v, want none", store.names)
	}

	output, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(output), "cid:missing") {
		t.Errorf("unmatched image should keep its cid reference:\n%s", output)
	}
}

func TestRun_NoHTMLContent(t *testing.T) {
	t.Parallel()

	plain := "From: sender@example.com\r\n" +
		"To: recipient@example.com\r\n" +
		"Subject: Plain\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"just text\r\n"
	emlPath := writeEML(t, []byte(plain))

	_, err := New(&fakeUploader{}).Run(context.Background(), emlPath, filepath.Join(t.TempDir(), "out.html"))
	if !errors.Is(err, ErrNoHTMLContent) {
		t.Errorf("expected ErrNoHTMLContent, got %v", err)
	}
}

func TestRun_MissingEMLFile(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeUploader{}).Run(context.Background(),
		filepath.Join(t.TempDir(), "absent.eml"),
		filepath.Join(t.TempDir(), "out.html"))
	if err == nil {
		t.Error("expected error for missing eml file, got nil")
	}
}

func TestRun_CreatesOutputDirectory(t *testing.T) {
	t.Parallel()

	html := `<html><body><p>nested</p></body></html>`
	emlPath := writeEML(t, buildEML(t, html, nil))
	outPath := filepath.Join(t.TempDir(), "deeply", "nested", "out.html")

	if _, err := New(&fakeUploader{}).Run(context.Background(), emlPath, outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file should exist: %v", err)
	}
}

func TestBaseFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "/tmp/out/Spring Promo.html", want: "Spring_Promo"},
		{path: "newsletter.html", want: "newsletter"},
		{path: "Q1 Report (final).html", want: "Q1_Report__final"},
		{path: "weekly-digest.html", want: "weekly_digest"},
		{path: "---.html", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			if got := baseFilename(tt.path); got != tt.want {
				t.Errorf("baseFilename(%q): got %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
