package render

import (
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joelkehle/mark3/internal/assistant"
)

// Transcript is an exported chat conversation.
type Transcript struct {
	Title     string              `json:"title"`
	Wallet    string              `json:"wallet,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	Messages  []assistant.Message `json:"messages"`
}

const defaultCSS = `body{font-family:system-ui,-apple-system,"Segoe UI",sans-serif;color:#1c1917;background:#fff;margin:0;padding:1.5rem;}
.transcript{max-width:860px;margin:0 auto;}
.transcript-meta{color:#57534e;font-size:0.85rem;margin-bottom:1.25rem;}
.turn{border-radius:10px;padding:0.75rem 1rem;margin:0 0 0.9rem;}
.turn-user{background:#eef2ff;}
.turn-assistant{background:#f9f7f3;border:1px solid #e7e5e4;}
.turn-role{font-weight:700;font-size:0.8rem;text-transform:uppercase;letter-spacing:0.04em;margin-bottom:0.35rem;}
.turn-user .turn-body{white-space:pre-wrap;}
h2[data-block]{border-top:1px solid #d6d3d1;padding-top:0.6rem;}
img{max-width:320px;height:auto;border-radius:6px;}
table{border-collapse:collapse;width:100%;}
th,td{border:1px solid #a8a29e;padding:0.3rem 0.45rem;text-align:left;}`

// LoadStyle returns web/style.css when present and the built-in stylesheet
// otherwise.
func LoadStyle(webDir string) string {
	if webDir != "" {
		if b, err := os.ReadFile(filepath.Join(webDir, "style.css")); err == nil {
			return string(b)
		}
	}
	return defaultCSS
}

// TranscriptHTML builds a standalone HTML document for t. User turns are
// escaped verbatim; assistant turns are rendered as markdown.
func TranscriptHTML(t Transcript, css string) (string, error) {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Mark3 conversation"
	}

	var body strings.Builder
	for _, m := range t.Messages {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(m.Role) {
		case assistant.RoleUser:
			body.WriteString("<div class='turn turn-user'><div class='turn-role'>You</div><div class='turn-body'>")
			body.WriteString(html.EscapeString(content))
			body.WriteString("</div></div>")
		default:
			rendered, err := MarkdownToHTML(content)
			if err != nil {
				return "", err
			}
			body.WriteString("<div class='turn turn-assistant'><div class='turn-role'>Mark3 Assistant</div><div class='turn-body'>")
			body.WriteString(rendered)
			body.WriteString("</div></div>")
		}
	}

	var meta strings.Builder
	if !t.CreatedAt.IsZero() {
		meta.WriteString("<div><strong>Date:</strong> " + html.EscapeString(t.CreatedAt.UTC().Format("January 2, 2006 at 3:04 PM MST")) + "</div>")
	}
	if w := strings.TrimSpace(t.Wallet); w != "" {
		meta.WriteString("<div><strong>Wallet:</strong> " + html.EscapeString(w) + "</div>")
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" + css + "\n" +
		"html,body,*{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
		"@media print{ @page{size:auto;margin:12mm;} body{padding:0;} .turn{break-inside:avoid;} }" +
		"</style></head><body><main class='transcript'>" +
		"<h1>" + html.EscapeString(title) + "</h1>" +
		"<div class='transcript-meta'>" + meta.String() + "</div>" +
		body.String() +
		"</main></body></html>", nil
}
