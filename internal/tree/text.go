package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/chirino/docsync/internal/model"
)

// WriteText prints nodes as an indented outline. Directories end in "/";
// leaves show their title when it differs from the segment name.
func WriteText(w io.Writer, nodes []*model.TreeNode) error {
	return writeLevel(w, nodes, 0)
}

func writeLevel(w io.Writer, nodes []*model.TreeNode, depth int) error {
	for _, n := range nodes {
		line := strings.Repeat("  ", depth) + n.Name
		if n.Kind == model.NodeKindDirectory {
			line += "/"
		}
		if n.Title != "" && n.Title != n.Name {
			line += "  (" + n.Title + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if err := writeLevel(w, n.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}
