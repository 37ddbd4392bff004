package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/mark3/internal/assistant"
)

func TestMarkdownToHTMLRendersGFM(t *testing.T) {
	out, err := MarkdownToHTML("## Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<del>gone</del>")
}

func TestMarkdownToHTMLOmitsRawHTML(t *testing.T) {
	out, err := MarkdownToHTML("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestChatLayoutHooks(t *testing.T) {
	out, err := MarkdownToHTML("## 🔗 Trademark Registration on Blockchain\n\n## 🎨 NFT Query for wallet 0x1234...abcd\n\n![logo](https://img/x.png)")
	require.NoError(t, err)
	assert.Contains(t, out, `data-block="registration">🔗 Trademark Registration on Blockchain</h2>`)
	assert.Contains(t, out, `data-block="nfts">🎨 NFT Query for wallet 0x1234...abcd</h2>`)
	assert.Contains(t, out, `loading="lazy"`)
}

func TestChatLayoutHooksNoopWithoutBlocks(t *testing.T) {
	in := "<h2>Other</h2><p>x</p>"
	assert.Equal(t, in, applyChatLayoutHooks(in))
}

func TestTranscriptHTML(t *testing.T) {
	doc, err := TranscriptHTML(Transcript{
		Title:     "Acme <chat>",
		Wallet:    "0x1234567890123456789012345678901234567890",
		CreatedAt: time.Date(2025, 2, 3, 14, 5, 0, 0, time.UTC),
		Messages: []assistant.Message{
			{Role: "user", Content: "**not bold** <b>x</b>"},
			{Role: "assistant", Content: "**bold**"},
			{Role: "assistant", Content: "   "},
		},
	}, "body{}")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doc, "<!doctype html>"))
	assert.Contains(t, doc, "<title>Acme &lt;chat&gt;</title>")
	assert.Contains(t, doc, "**not bold** &lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, doc, "<strong>bold</strong>")
	assert.Contains(t, doc, "February 3, 2025 at 2:05 PM UTC")
	assert.Contains(t, doc, "0x1234567890123456789012345678901234567890")
	assert.Equal(t, 2, strings.Count(doc, "class='turn "))
}

func TestLoadStyleFallsBack(t *testing.T) {
	assert.Equal(t, defaultCSS, LoadStyle(t.TempDir()))
	assert.Equal(t, defaultCSS, LoadStyle(""))
}
