// ABOUTME: Diagnostic rendering of product DAGs
// ABOUTME: Indents each node by its distance from the root

package dag

import (
	"fmt"
	"strings"
)

// Print renders a DAG as an indented tree. Invalid DAGs render as a one-line error.
func Print(d DAG) string {
	g, err := Build(d)
	if err != nil {
		return fmt.Sprintf("<%v>\n", err)
	}
	root, _ := g.Root()

	var b strings.Builder
	for n := range g.Walk() {
		b.WriteString(strings.Repeat("  ", g.Distance(root.ID, n.ID)))
		b.WriteString(n.Name)
		if n.Value != nil {
			b.WriteString("=")
			b.WriteString(n.Value.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}
