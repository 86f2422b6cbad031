package pattern

import (
	"strings"

	"cmdforge/internal/source"
)

// Kind tells literal keywords from argument slots.
type Kind uint8

const (
	// Literal is a fixed keyword such as "teleport".
	Literal Kind = iota + 1
	// Argument is a variable slot written <name>.
	Argument
	// Root marks the synthetic root node of a scope; never produced by Lex.
	Root
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Argument:
		return "argument"
	case Root:
		return "root"
	}
	return "invalid"
}

// Identity is the (kind, name) key of a namespace tree node.
type Identity struct {
	Kind Kind
	Name string
}

func (id Identity) String() string {
	if id.Kind == Argument {
		return "<" + id.Name + ">"
	}
	return id.Name
}

// Token is one lexed unit of a command pattern.
type Token struct {
	Lexeme  string
	Kind    Kind
	Aliases []string // только для литералов; порядок объявления, без повторов
	Offset  uint32   // смещение токена внутри паттерна
	Len     uint32
	Pattern string      // исходный текст паттерна, для диагностик
	Origin  source.Span // где паттерн записан в исходнике
}

// Identity returns the tree key of the token.
func (t Token) Identity() Identity {
	return Identity{Kind: t.Kind, Name: t.Lexeme}
}

// DisplayForm renders the token the way it is written: <name> or name|a|b.
func (t Token) DisplayForm() string {
	if t.Kind == Argument {
		return "<" + t.Lexeme + ">"
	}
	if len(t.Aliases) == 0 {
		return t.Lexeme
	}
	return t.Lexeme + "|" + strings.Join(t.Aliases, "|")
}

// Span points at the token inside the declaration.
func (t Token) Span() source.Span {
	return t.Origin.Sub(t.Offset, t.Offset+t.Len)
}

// Format joins display forms with single spaces.
func Format(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.DisplayForm()
	}
	return strings.Join(parts, " ")
}

// IsSingleArgument reports whether tokens is exactly one <name> token.
func IsSingleArgument(tokens []Token) bool {
	return len(tokens) == 1 && tokens[0].Kind == Argument
}
