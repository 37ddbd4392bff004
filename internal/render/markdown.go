// Package render turns assistant markdown and chat transcripts into HTML and
// PDF documents.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// MarkdownToHTML renders GFM. Raw HTML in the source is omitted.
func MarkdownToHTML(source string) (string, error) {
	var out strings.Builder
	if err := md.Convert([]byte(source), &out); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return applyChatLayoutHooks(out.String()), nil
}

var (
	reRegistrationHeading = regexp.MustCompile(`<h2([^>]*)>([^<]*Trademark Registration on Blockchain[^<]*)</h2>`)
	reNFTHeading          = regexp.MustCompile(`<h2([^>]*)>([^<]*(?:NFT Query|Your NFTs)[^<]*)</h2>`)
	reImage               = regexp.MustCompile(`<img ([^>]*?)\s*/?>`)
)

// applyChatLayoutHooks tags the blocks the chat service appends so the
// stylesheet can set them apart, and lazy-loads NFT images.
func applyChatLayoutHooks(contentHTML string) string {
	out := reRegistrationHeading.ReplaceAllString(contentHTML, `<h2$1 data-block="registration">$2</h2>`)
	out = reNFTHeading.ReplaceAllString(out, `<h2$1 data-block="nfts">$2</h2>`)
	out = reImage.ReplaceAllString(out, `<img $1 loading="lazy">`)
	return out
}
