// Package sanitize rewrites campaign HTML: it disables link click-tracking,
// rewrites inline images to their uploaded URLs, and wraps the result in a
// minimal responsive document.
package sanitize

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// docTemplate is the standalone document every extracted campaign body is
// wrapped in, regardless of the original document's head or structure.
const docTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { max-width: 800px; margin: 0 auto; padding: 20px; }
        img { max-width: 100%%; height: auto; }
    </style>
</head>
<body>
%s
</body>
</html>`

// imageAllowedAttrs are the only attributes kept on a rewritten image element.
var imageAllowedAttrs = map[string]bool{
	"src":   true,
	"alt":   true,
	"style": true,
}

// DisableClickTracking forces clicktracking=off on every anchor element,
// overriding any existing value. SendGrid honors this per-link attribute.
func DisableClickTracking(doc *goquery.Document) {
	doc.Find("a").Each(func(_ int, a *goquery.Selection) {
		a.SetAttr("clicktracking", "off")
	})
}

// RewriteImage points an image element at its uploaded destination URL.
// When both width and height attributes are present and non-empty they are
// collapsed into an inline style rule; every attribute other than src, alt
// and style is stripped.
func RewriteImage(img *goquery.Selection, url string) {
	img.SetAttr("src", url)

	width, _ := img.Attr("width")
	height, _ := img.Attr("height")
	if width != "" && height != "" {
		img.SetAttr("style", fmt.Sprintf("width:%spx;height:%spx", width, height))
	}

	for _, node := range img.Nodes {
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			if imageAllowedAttrs[attr.Key] {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	}
}

// WrapDocument renders the document's body content inside the fixed
// responsive template.
func WrapDocument(doc *goquery.Document) (string, error) {
	inner, err := doc.Find("body").First().Html()
	if err != nil {
		return "", fmt.Errorf("failed to render body content: %w", err)
	}
	return fmt.Sprintf(docTemplate, inner), nil
}
