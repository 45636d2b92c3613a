// Package render declares the boundary to the site renderer. docsync
// produces entries and does not render them; Renderer is implemented by
// consumers of the entry set, not by this module.
package render

import "github.com/chirino/docsync/internal/model"

// Renderer turns entries into markup for a site.
type Renderer interface {
	// Render returns rendered markup for the entry set.
	Render(entries []model.ContentEntry) (string, error)
	// Highlight returns syntax-highlighted HTML for a raw code block.
	Highlight(source string) (string, error)
}
