// Package analyze checks that the bound namespace tree is complete enough
// to generate code from.
package analyze

import (
	"cmdforge/internal/diag"
	"cmdforge/internal/env"
	"cmdforge/internal/nstree"
)

// Run walks every scope depth-first and reports each argument node that
// has no argument type bound. It reports all of them; it never stops at
// the first one. It returns the number of nodes reported.
func Run(e *env.Environment) int {
	tree := e.Tree()
	missing := 0
	tree.WalkAll(func(id nstree.NodeID) {
		n := tree.Node(id)
		if !n.IsArgument() || n.Binding(nstree.SlotArgumentType) != nil {
			return
		}
		missing++
		e.Errorf(diag.AnaMissingConverter, n.Decl,
			"argument %s of %q has no argument type: bind a field or method returning an argument type to %q",
			n.Identity, tree.PathString(id), n.Identity).
			Emit()
	})
	return missing
}
