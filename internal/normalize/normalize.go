// Package normalize cleans raw document bodies before they are stored.
package normalize

import (
	"context"
	"regexp"
	"strings"
)

var (
	markdownImage = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
	htmlImage     = regexp.MustCompile(`<img[^>]+src="([^">]+)"`)
	colorStyle    = regexp.MustCompile(`(?i)\s+style="[^"]*color:[^"]*"`)
)

// Localizer rewrites a remote image URL to a local path. It returns the input
// unchanged when the URL is not localized.
type Localizer interface {
	Localize(ctx context.Context, rawURL string) string
}

// Normalizer strips inline color styling and localizes embedded images.
type Normalizer struct {
	localizer Localizer
}

// New returns a Normalizer. A nil localizer leaves image references alone.
func New(localizer Localizer) *Normalizer {
	return &Normalizer{localizer: localizer}
}

// Normalize applies both transforms. Text that matches neither is returned
// byte for byte.
func (n *Normalizer) Normalize(ctx context.Context, body string) string {
	if n.localizer != nil {
		body = n.rewriteMarkdownImages(ctx, body)
		body = n.rewriteHTMLImages(ctx, body)
	}
	return StripColorStyles(body)
}

// StripColorStyles removes style attributes that declare a color, including
// the whitespace in front of them.
func StripColorStyles(body string) string {
	return colorStyle.ReplaceAllString(body, "")
}

func (n *Normalizer) rewriteMarkdownImages(ctx context.Context, body string) string {
	return replaceGroup(body, markdownImage, 2, func(target string) string {
		// The target may carry a title: ![alt](url "title").
		rawURL, rest := target, ""
		if i := strings.IndexAny(target, " \t"); i >= 0 {
			rawURL, rest = target[:i], target[i:]
		}
		return n.localizer.Localize(ctx, rawURL) + rest
	})
}

func (n *Normalizer) rewriteHTMLImages(ctx context.Context, body string) string {
	return replaceGroup(body, htmlImage, 1, func(src string) string {
		return n.localizer.Localize(ctx, src)
	})
}

// replaceGroup rewrites only capture group g of each match of re.
func replaceGroup(s string, re *regexp.Regexp, g int, fn func(string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(fn(s[start:end]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
