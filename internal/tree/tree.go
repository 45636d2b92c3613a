// Package tree builds the navigation tree from resolved entry ids.
package tree

import (
	"sort"
	"strings"

	"github.com/chirino/docsync/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Build returns the sorted navigation forest for entries, collating names
// with the root locale.
func Build(entries []model.ContentEntry) []*model.TreeNode {
	return BuildWithLocale(entries, language.Und)
}

// BuildWithLocale is Build with an explicit collation locale.
func BuildWithLocale(entries []model.ContentEntry, tag language.Tag) []*model.TreeNode {
	var roots []*model.TreeNode
	for _, e := range entries {
		parts := Segments(e.ID)
		if len(parts) == 0 {
			continue
		}
		level := &roots
		path := ""
		for i, part := range parts {
			if path == "" {
				path = part
			} else {
				path += "/" + part
			}
			node := find(*level, part)
			if node == nil {
				node = &model.TreeNode{Name: part, Kind: model.NodeKindDirectory, Path: path, Children: []*model.TreeNode{}}
				if i == len(parts)-1 {
					node.Kind = model.NodeKindFile
				}
				*level = append(*level, node)
			}
			if i == len(parts)-1 {
				annotate(node, e)
				continue
			}
			// A leaf that gains children becomes a directory but keeps its slug.
			node.Kind = model.NodeKindDirectory
			level = &node.Children
		}
	}
	sortNodes(roots, collate.New(tag))
	return roots
}

// Segments splits an id into path segments, dropping empty and "." parts.
func Segments(id string) []string {
	var out []string
	for _, part := range strings.Split(id, "/") {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}
		out = append(out, part)
	}
	return out
}

func find(nodes []*model.TreeNode, name string) *model.TreeNode {
	for _, n := range nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

func annotate(node *model.TreeNode, e model.ContentEntry) {
	sortOrder := e.Metadata.SortOrder
	node.Slug = e.ID
	node.Title = e.Metadata.Title
	node.SortOrder = &sortOrder
}

func sortNodes(nodes []*model.TreeNode, c *collate.Collator) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return less(nodes[i], nodes[j], c)
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortNodes(n.Children, c)
		}
	}
}

func less(a, b *model.TreeNode, c *collate.Collator) bool {
	switch {
	case a.SortOrder != nil && b.SortOrder == nil:
		return true
	case a.SortOrder == nil && b.SortOrder != nil:
		return false
	case a.SortOrder != nil && *a.SortOrder != *b.SortOrder:
		return *a.SortOrder < *b.SortOrder
	}
	if a.Kind != b.Kind {
		return a.Kind == model.NodeKindDirectory
	}
	return c.CompareString(a.Name, b.Name) < 0
}
