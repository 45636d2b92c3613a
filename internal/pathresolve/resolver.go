// Package pathresolve turns the remote table of contents into slash-delimited
// hierarchical paths.
package pathresolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/model"
)

// Separator joins path segments.
const Separator = "/"

// segmentJoiner replaces Separator inside a single segment.
const segmentJoiner = "-"

// AnomalyKind classifies a graph inconsistency found during resolution.
type AnomalyKind string

const (
	AnomalyUnknownParent AnomalyKind = "unknown-parent"
	AnomalySelfReference AnomalyKind = "self-reference"
	AnomalyCycle         AnomalyKind = "cycle"
)

// Anomaly is a recoverable inconsistency in the TOC graph. The affected node
// is placed at root level.
type Anomaly struct {
	Kind       AnomalyKind
	UUID       string
	ParentUUID string
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s: node %q parent %q", a.Kind, a.UUID, a.ParentUUID)
}

// Resolver memoizes uuid → path for a single ingestion run. It is not safe for
// concurrent use; ResolveAll before fanning out and share the resulting map.
type Resolver struct {
	nodes     map[string]model.TocNode
	order     []string
	docTitles map[string]string

	paths        map[string]string
	visiting     map[string]bool
	anomalies    []Anomaly
	computations int
}

// New builds a resolver over the TOC and the deduplicated document list.
func New(toc []model.TocNode, docs []model.DocumentSummary) *Resolver {
	r := &Resolver{
		nodes:     make(map[string]model.TocNode, len(toc)),
		order:     make([]string, 0, len(toc)),
		docTitles: make(map[string]string, len(docs)),
		paths:     make(map[string]string, len(toc)),
		visiting:  map[string]bool{},
	}
	for _, node := range toc {
		if node.UUID == "" {
			continue
		}
		if _, dup := r.nodes[node.UUID]; !dup {
			r.order = append(r.order, node.UUID)
		}
		r.nodes[node.UUID] = node
	}
	for _, doc := range docs {
		if doc.ID != "" {
			r.docTitles[doc.ID.String()] = doc.Title
		}
	}
	return r
}

// SanitizeSegment substitutes path separators and trims whitespace so the
// value can be used as a single path segment.
func SanitizeSegment(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, Separator, segmentJoiner))
}

// Resolve returns the path for uuid and whether uuid is a TOC node.
func (r *Resolver) Resolve(uuid string) (string, bool) {
	if _, ok := r.nodes[uuid]; !ok {
		return "", false
	}
	return r.resolve(uuid), true
}

// ResolveAll resolves every TOC node and returns a copy of the path map.
func (r *Resolver) ResolveAll() map[string]string {
	for _, uuid := range r.order {
		r.resolve(uuid)
	}
	out := make(map[string]string, len(r.paths))
	for k, v := range r.paths {
		out[k] = v
	}
	return out
}

// Computations is the number of segments computed so far. Each node is
// computed at most once.
func (r *Resolver) Computations() int { return r.computations }

// Anomalies returns the inconsistencies encountered so far.
func (r *Resolver) Anomalies() []Anomaly {
	return append([]Anomaly(nil), r.anomalies...)
}

func (r *Resolver) resolve(uuid string) string {
	if path, ok := r.paths[uuid]; ok {
		return path
	}
	node := r.nodes[uuid]
	r.visiting[uuid] = true
	defer delete(r.visiting, uuid)

	segment := r.segment(node)
	path := segment
	if parent := node.ParentUUID; parent != "" {
		_, known := r.nodes[parent]
		switch {
		case parent == uuid:
			r.anomaly(Anomaly{Kind: AnomalySelfReference, UUID: uuid, ParentUUID: parent})
		case !known:
			r.anomaly(Anomaly{Kind: AnomalyUnknownParent, UUID: uuid, ParentUUID: parent})
		case r.visiting[parent]:
			r.anomaly(Anomaly{Kind: AnomalyCycle, UUID: uuid, ParentUUID: parent})
		default:
			path = r.resolve(parent) + Separator + segment
		}
	}
	r.paths[uuid] = path
	return path
}

// segment picks the first candidate that is non-empty after sanitizing:
// title, the referenced document's title, slug, then uuid.
func (r *Resolver) segment(node model.TocNode) string {
	r.computations++
	var docTitle string
	if node.DocID != "" {
		docTitle = r.docTitles[node.DocID.String()]
	}
	for _, raw := range []string{node.Title, docTitle, node.Slug} {
		if seg := SanitizeSegment(raw); seg != "" {
			return seg
		}
	}
	return SanitizeSegment(node.UUID)
}

func (r *Resolver) anomaly(a Anomaly) {
	r.anomalies = append(r.anomalies, a)
	log.Warn("TOC graph anomaly, placing node at root", "kind", a.Kind, "uuid", a.UUID, "parent", a.ParentUUID)
}

// Summary describes a resolved path map for diagnostics.
type Summary struct {
	Count     int
	MaxDepth  int
	DeepPaths []string
	AllFlat   bool
}

// Summarize reports the size and depth of a path map. DeepPaths holds up to
// sample paths that contain a separator, sorted.
func Summarize(paths map[string]string, sample int) Summary {
	s := Summary{Count: len(paths)}
	var deep []string
	for _, p := range paths {
		depth := strings.Count(p, Separator) + 1
		if depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		if depth > 1 {
			deep = append(deep, p)
		}
	}
	sort.Strings(deep)
	if len(deep) > sample {
		deep = deep[:sample]
	}
	s.DeepPaths = deep
	s.AllFlat = s.Count > 0 && s.MaxDepth <= 1
	return s
}

// LogSummary emits the path map diagnostics.
func LogSummary(paths map[string]string) {
	s := Summarize(paths, 5)
	log.Info("Resolved TOC paths", "count", s.Count, "maxDepth", s.MaxDepth, "sample", s.DeepPaths)
	if s.AllFlat {
		log.Warn("Every resolved path is flat; check parent_uuid in the TOC payload", "count", s.Count)
	}
}
