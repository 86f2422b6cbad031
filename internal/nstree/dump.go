package nstree

import (
	"fmt"
	"io"
	"strings"

	"cmdforge/internal/element"
)

// Dump prints every scope as an indented outline with its bindings.
func (t *Tree) Dump(w io.Writer) error {
	for _, sid := range t.Scopes() {
		s := t.GetScope(sid)
		if _, err := fmt.Fprintf(w, "%s\n", element.Describe(s.Decl)); err != nil {
			return err
		}
		var err error
		t.Walk(s.Root, func(id NodeID) bool {
			if err != nil {
				return false
			}
			if id == s.Root {
				return true
			}
			err = t.dumpNode(w, id, len(t.Path(id)))
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) dumpNode(w io.Writer, id NodeID, depth int) error {
	n := t.Node(id)
	label := n.Identity.String()
	if len(n.Aliases) > 0 {
		label += "|" + strings.Join(n.Aliases, "|")
	}
	var roles []string
	for _, slot := range Slots() {
		if b := n.Binding(slot); b != nil {
			roles = append(roles, fmt.Sprintf("%s=%s", b.Role, b.Element.Name()))
		}
	}
	line := strings.Repeat("  ", depth) + label
	if len(roles) > 0 {
		line += "  [" + strings.Join(roles, ", ") + "]"
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
