package element

import (
	"fmt"
	"path"
	"strings"
)

// TypeRef is a host-neutral reference to a declared type.
type TypeRef struct {
	Path    string // import path; "" for predeclared types and unresolved locals
	Name    string // "" together with !Tuple means "no type"
	Args    []TypeRef
	Pointer bool
	Tuple   bool      // several method results, held in Args
	Supers  []TypeRef // supertypes known to the host (embedded interfaces)
	Expr    string    // spelling in the declaring source, if known
}

// Void is the result type of methods that return nothing.
func Void() TypeRef { return TypeRef{} }

func (t TypeRef) IsVoid() bool { return t.Name == "" && !t.Tuple }

// Is reports whether t names path.name, ignoring type arguments and pointers.
func (t TypeRef) Is(pkgPath, name string) bool {
	return !t.Tuple && t.Path == pkgPath && t.Name == name
}

// Elem strips one level of pointer.
func (t TypeRef) Elem() TypeRef {
	t.Pointer = false
	t.Expr = strings.TrimPrefix(t.Expr, "*")
	return t
}

// Key is the canonical spelling used for equality: *full/path.Name[Args].
func (t TypeRef) Key() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t TypeRef) writeKey(b *strings.Builder) {
	if t.Tuple {
		b.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.writeKey(b)
		}
		b.WriteByte(')')
		return
	}
	if t.Pointer {
		b.WriteByte('*')
	}
	if t.Path != "" {
		b.WriteString(t.Path)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('[')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.writeKey(b)
		}
		b.WriteByte(']')
	}
}

// Equal compares canonical keys.
func (t TypeRef) Equal(o TypeRef) bool { return t.Key() == o.Key() }

// String renders the source spelling when known, a short form otherwise.
func (t TypeRef) String() string {
	if t.Expr != "" {
		return t.Expr
	}
	if t.IsVoid() {
		return "()"
	}
	return t.Qualified(func(p string) string { return path.Base(p) })
}

// Qualified renders t with package qualifiers chosen by qual; qual gets the
// import path and returns the identifier to use ("" for none).
func (t TypeRef) Qualified(qual func(pkgPath string) string) string {
	var b strings.Builder
	t.writeQualified(&b, qual)
	return b.String()
}

func (t TypeRef) writeQualified(b *strings.Builder, qual func(string) string) {
	if t.Tuple {
		b.WriteByte('(')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.writeQualified(b, qual)
		}
		b.WriteByte(')')
		return
	}
	if t.Pointer {
		b.WriteByte('*')
	}
	if t.Path != "" {
		if q := qual(t.Path); q != "" {
			b.WriteString(q)
			b.WriteByte('.')
		}
	}
	b.WriteString(t.Name)
	if len(t.Args) > 0 {
		b.WriteByte('[')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.writeQualified(b, qual)
		}
		b.WriteByte(']')
	}
}

// Walk calls fn for t and every nested type argument.
func (t TypeRef) Walk(fn func(TypeRef)) {
	fn(t)
	for _, a := range t.Args {
		a.Walk(fn)
	}
}

// ParseTypeRef reads the configuration spelling of a type:
//
//	int
//	*example.com/game.Player
//	cmdforge/pkg/dispatch.Optional[*example.com/game.Player]
func ParseTypeRef(s string) (TypeRef, error) {
	p := typeParser{src: strings.TrimSpace(s)}
	t, err := p.parse()
	if err != nil {
		return TypeRef{}, err
	}
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("type %q: unexpected %q", s, p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) parse() (TypeRef, error) {
	var t TypeRef
	if p.pos < len(p.src) && p.src[p.pos] == '*' {
		t.Pointer = true
		p.pos++
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[],", rune(p.src[p.pos])) {
		p.pos++
	}
	full := strings.TrimSpace(p.src[start:p.pos])
	if full == "" {
		return TypeRef{}, fmt.Errorf("type %q: missing name at offset %d", p.src, start)
	}
	// имя: после последней точки, которая стоит после последнего слэша
	slash := strings.LastIndexByte(full, '/')
	if dot := strings.LastIndexByte(full, '.'); dot > slash {
		t.Path, t.Name = full[:dot], full[dot+1:]
	} else if slash >= 0 {
		return TypeRef{}, fmt.Errorf("type %q: package path without type name", full)
	} else {
		t.Name = full
	}
	if p.pos < len(p.src) && p.src[p.pos] == '[' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			if p.pos >= len(p.src) {
				return TypeRef{}, fmt.Errorf("type %q: unterminated type arguments", p.src)
			}
			c := p.src[p.pos]
			p.pos++
			if c == ']' {
				break
			}
			if c != ',' {
				return TypeRef{}, fmt.Errorf("type %q: unexpected %q", p.src, c)
			}
			for p.pos < len(p.src) && p.src[p.pos] == ' ' {
				p.pos++
			}
		}
	}
	return t, nil
}
