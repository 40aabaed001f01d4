package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"golang.org/x/net/html/charset"
)

// Parse parses a raw RFC 5322 email message. It handles single-part HTML
// messages and multipart messages, collecting the first text/html part
// (decoded per its declared charset) and every image part that carries a
// Content-ID header. Parts without a Content-ID and non-image, non-HTML
// parts are ignored.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	result := &Message{
		InlineImages: make(map[string]InlineImage),
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content type %q: %w", contentType, err)
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := walkMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return result, nil
	}

	// Single-part message: only a text/html body is of interest.
	if mediaType == "text/html" {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		decoded, err := decodeTransferEncoding(msg.Header.Get("Content-Transfer-Encoding"), body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode message body: %w", err)
		}
		html, err := decodeCharset(decoded, params["charset"])
		if err != nil {
			return nil, fmt.Errorf("failed to decode message charset: %w", err)
		}
		result.HTMLBody = html
	}

	return result, nil
}

// walkMultipart processes a multipart MIME body, descending into nested
// multipart containers and collecting HTML and inline image parts.
func walkMultipart(body io.Reader, boundary string, result *Message) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nestedBoundary := params["boundary"]
			if nestedBoundary == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := walkMultipart(part, nestedBoundary, result); err != nil {
				slog.Warn("failed to parse nested multipart", "error", err)
			}
			continue
		}

		switch {
		case mediaType == "text/html":
			if result.HTMLBody != "" {
				continue
			}
			content, err := readPartContent(part)
			if err != nil {
				slog.Warn("failed to read html part", "error", err)
				continue
			}
			html, err := decodeCharset(content, params["charset"])
			if err != nil {
				slog.Warn("failed to decode html part charset",
					"charset", params["charset"],
					"error", err,
				)
				continue
			}
			result.HTMLBody = html

		case strings.HasPrefix(mediaType, "image/"):
			contentID := strings.Trim(part.Header.Get("Content-Id"), "<>")
			if contentID == "" {
				continue
			}
			content, err := readPartContent(part)
			if err != nil {
				slog.Warn("failed to read image part",
					"content_id", contentID,
					"error", err,
				)
				continue
			}
			result.InlineImages[contentID] = InlineImage{
				ContentType: mediaType,
				Data:        content,
			}
		}
	}

	return nil
}

// readPartContent reads the full content of a MIME part, handling
// Content-Transfer-Encoding. Quoted-printable is decoded transparently by
// the multipart reader; base64 is decoded here.
func readPartContent(part *multipart.Part) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	if encoding == "base64" {
		return decodeBase64(raw)
	}
	return raw, nil
}

// decodeTransferEncoding decodes a top-level message body, which does not
// pass through the multipart reader and so needs explicit handling for both
// base64 and quoted-printable.
func decodeTransferEncoding(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return decodeBase64(body)
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(bytes.NewReader(body)))
	default:
		return body, nil
	}
}

// decodeBase64 decodes base64 content, tolerating line breaks and missing
// padding.
func decodeBase64(raw []byte) ([]byte, error) {
	cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
	decoded, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 content: %w", err)
		}
	}
	return decoded, nil
}

// decodeCharset converts part content to UTF-8 according to the declared
// charset label. Content without a charset is assumed to already be UTF-8.
func decodeCharset(content []byte, label string) (string, error) {
	if label == "" {
		return string(content), nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
