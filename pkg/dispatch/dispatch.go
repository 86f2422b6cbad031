// Package dispatch is the constructor surface generated command trees are
// written against. It models the nodes of a command tree and the handler
// shapes a bound element may take; matching user input against the tree
// is the job of the platform that registers it.
package dispatch

import (
	"fmt"
	"strings"
)

// SingleSuccess is the result a command body reports when it has no
// result of its own.
const SingleSuccess = 1

// Source is the actor that invokes a command.
type Source interface {
	Name() string
}

// Command is a side-effecting command body.
type Command interface {
	Run(ctx *Context)
}

// Execution is a command body that also produces a numeric result.
type Execution interface {
	Command
	Execute(ctx *Context) int
}

// Requirement decides whether a source may use a node.
type Requirement interface {
	Test(source Source) bool
}

// SuggestionProvider completes the argument a node stands for.
type SuggestionProvider interface {
	Suggest(ctx *Context, builder *SuggestionsBuilder) *Suggestions
}

// ArgumentType converts the text of one argument to a value.
type ArgumentType[T any] interface {
	Parse(r *StringReader) (T, error)
}

// Node is one literal or argument of a command tree.
type Node struct {
	name     string
	literal  bool
	aliases  []string
	children []*Node
	parse    func(r *StringReader) (any, error)
	exec     func(ctx *Context) int
	requires func(source Source) bool
	suggests func(ctx *Context, builder *SuggestionsBuilder) *Suggestions
}

// Literal creates a keyword node.
func Literal(name string) *Node {
	return &Node{name: name, literal: true}
}

// Argument creates a node that parses its input with typ.
func Argument[T any](name string, typ ArgumentType[T]) *Node {
	return &Node{name: name, parse: func(r *StringReader) (any, error) {
		return typ.Parse(r)
	}}
}

// Alias adds alternative spellings to a literal.
func (n *Node) Alias(names ...string) *Node {
	if !n.literal {
		panic(fmt.Sprintf("dispatch: argument <%s> cannot have aliases", n.name))
	}
	n.aliases = append(n.aliases, names...)
	return n
}

// Then appends children.
func (n *Node) Then(children ...*Node) *Node {
	n.children = append(n.children, children...)
	return n
}

func (n *Node) Executes(fn func(ctx *Context) int) *Node {
	n.exec = fn
	return n
}

func (n *Node) Requires(fn func(source Source) bool) *Node {
	n.requires = fn
	return n
}

func (n *Node) Suggests(fn func(ctx *Context, builder *SuggestionsBuilder) *Suggestions) *Node {
	n.suggests = fn
	return n
}

func (n *Node) Name() string       { return n.name }
func (n *Node) IsLiteral() bool    { return n.literal }
func (n *Node) Aliases() []string  { return n.aliases }
func (n *Node) Children() []*Node  { return n.children }
func (n *Node) IsExecutable() bool { return n.exec != nil }

// Usage renders the node as it would be written in a pattern.
func (n *Node) Usage() string {
	if !n.literal {
		return "<" + n.name + ">"
	}
	if len(n.aliases) == 0 {
		return n.name
	}
	return n.name + "|" + strings.Join(n.aliases, "|")
}

// Matches reports whether word selects this literal.
func (n *Node) Matches(word string) bool {
	if !n.literal {
		return false
	}
	if word == n.name {
		return true
	}
	for _, a := range n.aliases {
		if a == word {
			return true
		}
	}
	return false
}

// CanUse evaluates the node's requirement; nodes without one are open.
func (n *Node) CanUse(source Source) bool {
	return n.requires == nil || n.requires(source)
}

// Parse runs the argument type over r.
func (n *Node) Parse(r *StringReader) (any, error) {
	if n.parse == nil {
		return nil, fmt.Errorf("dispatch: %s is not an argument", n.Usage())
	}
	return n.parse(r)
}

// Run invokes the command body.
func (n *Node) Run(ctx *Context) (int, error) {
	if n.exec == nil {
		return 0, fmt.Errorf("dispatch: %s is not executable", n.Usage())
	}
	return n.exec(ctx), nil
}

// Suggest asks the node's provider for completions; nil without one.
func (n *Node) Suggest(ctx *Context, builder *SuggestionsBuilder) *Suggestions {
	if n.suggests == nil {
		return nil
	}
	return n.suggests(ctx, builder)
}
