package dispatch

import (
	"fmt"
	"strings"
)

// Context carries one invocation: the source, the raw input and the
// argument values parsed so far.
type Context struct {
	source Source
	input  string
	args   map[string]any
}

func NewContext(source Source, input string) *Context {
	return &Context{source: source, input: input, args: make(map[string]any)}
}

func (c *Context) Source() Source { return c.source }
func (c *Context) Input() string  { return c.input }

// SetArg records the parsed value of argument name.
func (c *Context) SetArg(name string, value any) { c.args[name] = value }

// Arg returns the parsed value of argument name. A missing argument or a
// value of another type is a defect in the tree and panics.
func Arg[T any](ctx *Context, name string) T {
	v, ok := ctx.args[name]
	if !ok {
		panic(fmt.Sprintf("dispatch: argument <%s> was not parsed", name))
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("dispatch: argument <%s> is %T, not %T", name, v, zero))
	}
	return t
}

// Optional holds a value that may be absent.
type Optional[S any] struct {
	value S
	ok    bool
}

func Some[S any](v S) Optional[S] { return Optional[S]{value: v, ok: true} }

func (o Optional[S]) Get() (S, bool) { return o.value, o.ok }

func (o Optional[S]) OrElse(fallback S) S {
	if o.ok {
		return o.value
	}
	return fallback
}

// As converts the source to the concrete actor type S and panics when the
// source is something else.
func As[S any](source Source) S {
	s, ok := source.(S)
	if !ok {
		var zero S
		panic(fmt.Sprintf("dispatch: source %T is not %T", source, zero))
	}
	return s
}

// OptionalAs converts the source to S when possible.
func OptionalAs[S any](source Source) Optional[S] {
	if s, ok := source.(S); ok {
		return Some(s)
	}
	return Optional[S]{}
}

// StringReader is a cursor over argument input.
type StringReader struct {
	input string
	pos   int
}

func NewStringReader(input string) *StringReader { return &StringReader{input: input} }

func (r *StringReader) Remaining() string { return r.input[r.pos:] }
func (r *StringReader) Cursor() int       { return r.pos }

// ReadWord consumes the next space-delimited word.
func (r *StringReader) ReadWord() string {
	rest := strings.TrimLeft(r.Remaining(), " ")
	r.pos = len(r.input) - len(rest)
	end := strings.IndexByte(rest, ' ')
	if end < 0 {
		end = len(rest)
	}
	r.pos += end
	return rest[:end]
}

// Suggestions is a completion result for the input starting at Start.
type Suggestions struct {
	Start int
	Items []string
}

// SuggestionsBuilder collects completions for the remaining input.
type SuggestionsBuilder struct {
	input string
	start int
	items []string
}

func NewSuggestionsBuilder(input string, start int) *SuggestionsBuilder {
	return &SuggestionsBuilder{input: input, start: start}
}

func (b *SuggestionsBuilder) Remaining() string { return b.input[b.start:] }

// Suggest adds text when it extends the remaining input.
func (b *SuggestionsBuilder) Suggest(text string) *SuggestionsBuilder {
	if strings.HasPrefix(strings.ToLower(text), strings.ToLower(b.Remaining())) {
		b.items = append(b.items, text)
	}
	return b
}

func (b *SuggestionsBuilder) Build() *Suggestions {
	return &Suggestions{Start: b.start, Items: b.items}
}
