package ingest

import (
	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/model"
)

// Dedupe collapses documents sharing an id. The last record in input order
// wins and takes the position of the first occurrence. Every dropped record
// is logged.
func Dedupe(docs []model.DocumentSummary) []model.DocumentSummary {
	index := make(map[model.FlexID]int, len(docs))
	out := make([]model.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		if i, seen := index[doc.ID]; seen {
			log.Warn("Dropping duplicate document", "id", doc.ID, "droppedSlug", out[i].Slug, "keptSlug", doc.Slug)
			out[i] = doc
			continue
		}
		index[doc.ID] = len(out)
		out = append(out, doc)
	}
	return out
}
