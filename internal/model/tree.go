package model

// NodeKind distinguishes navigation tree nodes.
type NodeKind string

const (
	NodeKindFile      NodeKind = "file"
	NodeKindDirectory NodeKind = "directory"
)

// TreeNode is one node of the navigation tree. A directory that is also an
// entry's leaf carries Slug, Title and SortOrder alongside its children.
type TreeNode struct {
	Name      string      `json:"name"`
	Kind      NodeKind    `json:"type"`
	Path      string      `json:"path"`
	Slug      string      `json:"slug,omitempty"`
	Title     string      `json:"title,omitempty"`
	SortOrder *int        `json:"sort,omitempty"`
	Children  []*TreeNode `json:"children"`
}
