// internal/markdown/renderer.go
package markdown

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RemoteRenderer renders markdown through an external service (the GitHub
// markdown endpoint in practice).
type RemoteRenderer interface {
	RenderMarkdown(ctx context.Context, text string) (string, error)
}

// Renderer converts README markdown to HTML, preferring the remote renderer
// and falling back to a basic local parser on any failure.
type Renderer struct {
	remote RemoteRenderer
	logger *slog.Logger
}

// NewRenderer creates a Renderer. remote may be nil, in which case only the
// local fallback is used.
func NewRenderer(remote RemoteRenderer, logger *slog.Logger) *Renderer {
	return &Renderer{remote: remote, logger: logger}
}

// Render returns HTML for the given markdown text.
func (r *Renderer) Render(ctx context.Context, text string) string {
	if text == "" {
		return ""
	}

	if r.remote != nil {
		html, err := r.remote.RenderMarkdown(ctx, text)
		if err == nil {
			return html
		}
		r.logger.Debug("Remote markdown rendering failed, using fallback", "error", err)
	}

	return renderBasic(text)
}

// Transformations of the fallback parser, applied in order. Longest header
// marker first so "######" is not consumed as "#".
var (
	reH6 = regexp.MustCompile(`(?m)^######\s+(.*)$`)
	reH5 = regexp.MustCompile(`(?m)^#####\s+(.*)$`)
	reH4 = regexp.MustCompile(`(?m)^####\s+(.*)$`)
	reH3 = regexp.MustCompile(`(?m)^###\s+(.*)$`)
	reH2 = regexp.MustCompile(`(?m)^##\s+(.*)$`)
	reH1 = regexp.MustCompile(`(?m)^#\s+(.*)$`)

	reBoldItalic = regexp.MustCompile(`(?s)\*\*\*(.+?)\*\*\*`)
	reBold       = regexp.MustCompile(`(?s)\*\*(.+?)\*\*`)
	reItalic     = regexp.MustCompile(`(?s)\*(.+?)\*`)

	reFence      = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
	reInlineCode = regexp.MustCompile("`([^`]+)`")

	reLink  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
)

// renderBasic is a best-effort fallback, not a full markdown grammar. No
// lists, tables, or blockquotes.
func renderBasic(text string) string {
	text = reH6.ReplaceAllString(text, "<h6>$1</h6>")
	text = reH5.ReplaceAllString(text, "<h5>$1</h5>")
	text = reH4.ReplaceAllString(text, "<h4>$1</h4>")
	text = reH3.ReplaceAllString(text, "<h3>$1</h3>")
	text = reH2.ReplaceAllString(text, "<h2>$1</h2>")
	text = reH1.ReplaceAllString(text, "<h1>$1</h1>")

	text = reBoldItalic.ReplaceAllString(text, "<strong><em>$1</em></strong>")
	text = reBold.ReplaceAllString(text, "<strong>$1</strong>")
	text = reItalic.ReplaceAllString(text, "<em>$1</em>")

	text = reFence.ReplaceAllString(text, `<pre><code class="language-$1">$2</code></pre>`)
	text = reInlineCode.ReplaceAllString(text, "<code>$1</code>")

	text = reLink.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = reImage.ReplaceAllString(text, `<img src="$2" alt="$1">`)

	text = strings.ReplaceAll(text, "\n", "<br>\n")

	return text
}
