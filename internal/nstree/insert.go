package nstree

import (
	"fmt"
	"slices"

	"cmdforge/internal/diag"
	"cmdforge/internal/pattern"
)

// Insert walks tokens below parent, creating missing nodes and merging
// into existing ones. It returns the node of the last token. On a kind
// conflict the error is reported, the existing node is left untouched and
// insertion stops with ok == false.
func (t *Tree) Insert(parent NodeID, tokens []pattern.Token, r diag.Reporter) (NodeID, bool) {
	if t.Node(parent) == nil || len(tokens) == 0 {
		return NoNode, false
	}
	cur := parent
	for _, tok := range tokens {
		next, exists := t.Child(cur, tok.Lexeme)
		if !exists {
			scope := t.Node(cur).Scope
			next = t.newNode(tok.Identity(), cur, scope, tok.Span())
			t.Node(next).Aliases = slices.Clone(tok.Aliases)
			cur = next
			continue
		}
		if !t.merge(next, tok, r) {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// merge folds tok into an existing node with the same name.
func (t *Tree) merge(id NodeID, tok pattern.Token, r diag.Reporter) bool {
	n := t.Node(id)
	if n.Identity.Kind != tok.Kind {
		diag.ReportError(r, diag.TreeKindMismatch, tok.Span(),
			fmt.Sprintf("%q is declared as %s %s here but as %s %s in %q",
				tok.Lexeme, article(tok.Kind), tok.Kind, article(n.Identity.Kind), n.Identity.Kind, t.PathString(id))).
			WithNote(n.Decl, "first declared here").
			Emit()
		return false
	}
	for _, alias := range tok.Aliases {
		if slices.Contains(n.Aliases, alias) {
			diag.ReportWarning(r, diag.TreeDuplicateAlias, tok.Span(),
				fmt.Sprintf("alias %q of %q is already declared", alias, t.PathString(id))).
				WithNote(n.Decl, "first declared here").
				Emit()
			continue
		}
		n.Aliases = append(n.Aliases, alias)
	}
	return true
}

func article(k Kind) string {
	if k == pattern.Argument {
		return "an"
	}
	return "a"
}
