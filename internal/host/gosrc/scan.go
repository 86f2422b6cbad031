package gosrc

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"cmdforge/internal/codegen"
	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/host"
	"cmdforge/internal/source"
	"cmdforge/internal/suggest"
)

const prefix = "//cmd:"

var directives = []string{"command", "package", "bind", "let"}

var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "complex64": true,
	"complex128": true, "error": true, "float32": true, "float64": true, "int": true,
	"int8": true, "int16": true, "int32": true, "int64": true, "rune": true,
	"string": true, "uint": true, "uint8": true, "uint16": true, "uint32": true,
	"uint64": true, "uintptr": true,
}

type fileResult struct {
	decls  []host.Declaration
	diags  []diag.Diagnostic
	ifaces map[string][]element.TypeRef
}

// fileScanner держит состояние разбора одного файла; работает в своей горутине.
type fileScanner struct {
	file    *source.File
	tfile   *token.File
	pkg     string
	imports map[string]string
	seen    map[*ast.Comment]bool
	owners  map[string]*element.Decl
	res     fileResult
}

// directive is one parsed //cmd: comment.
type directive struct {
	name    string
	args    string
	span    source.Span // whole comment
	argSpan source.Span
}

func scanFile(f *source.File, importPath string) fileResult {
	s := &fileScanner{
		file:    f,
		pkg:     importPath,
		imports: make(map[string]string),
		seen:    make(map[*ast.Comment]bool),
		owners:  make(map[string]*element.Decl),
		res:     fileResult{ifaces: make(map[string][]element.TypeRef)},
	}
	tfs := token.NewFileSet()
	af, err := parser.ParseFile(tfs, f.Path, f.Content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		s.parseErrors(err)
		return s.res
	}
	s.tfile = tfs.File(af.Pos())
	s.scan(af)
	return s.res
}

func (s *fileScanner) parseErrors(err error) {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		s.errorf(diag.HostParseError, source.Span{File: s.file.ID}, "%v", err)
		return
	}
	for _, e := range list {
		off := u32(min(max(e.Pos.Offset, 0), len(s.file.Content)))
		sp := source.Span{File: s.file.ID, Start: off, End: off}
		s.errorf(diag.HostParseError, sp, "%s", e.Msg)
	}
}

func (s *fileScanner) scan(af *ast.File) {
	for _, imp := range af.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := codegen.ImportName(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		s.imports[name] = p
	}

	for _, d := range af.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(d.Specs) == 1 {
					doc = d.Doc
				}
				s.typeSpec(ts, doc)
			}
		case *ast.FuncDecl:
			s.funcDecl(d)
		}
	}

	// всё, что не забрали объявления, стоит не на своём месте
	for _, cg := range af.Comments {
		for _, c := range cg.List {
			if s.seen[c] || !strings.HasPrefix(c.Text, prefix) {
				continue
			}
			dir, ok := s.parse(c)
			if !ok {
				continue
			}
			s.errorf(diag.HostMisplaced, dir.span, "//cmd:%s must annotate a declaration", dir.name)
		}
	}
}

func (s *fileScanner) typeSpec(ts *ast.TypeSpec, doc *ast.CommentGroup) {
	if it, ok := ts.Type.(*ast.InterfaceType); ok {
		for _, m := range it.Methods.List {
			if len(m.Names) == 0 {
				s.res.ifaces[ts.Name.Name] = append(s.res.ifaces[ts.Name.Name], s.typeRef(m.Type))
			}
		}
	}
	owner := s.owner(ts.Name.Name, s.span(ts.Name))
	// метод мог встретиться раньше типа
	owner.Span = s.span(ts.Name)
	for _, dir := range s.directives(doc) {
		switch dir.name {
		case "command":
			if dir.args == "" {
				s.errorf(diag.HostMalformed, dir.span, "//cmd:command needs a pattern")
				continue
			}
			s.add(host.Declaration{Owner: owner, Element: owner, Kind: host.Commands, Patterns: []host.Pattern{{Text: dir.args, Span: dir.argSpan}}})
		case "package":
			if !token.IsIdentifier(dir.args) {
				s.errorf(diag.HostMalformed, dir.span, "//cmd:package needs a package name, got %q", dir.args)
				continue
			}
			s.add(host.Declaration{Owner: owner, Element: owner, Kind: host.Package, Patterns: []host.Pattern{{Text: dir.args, Span: dir.argSpan}}})
		default:
			s.errorf(diag.HostMisplaced, dir.span, "//cmd:%s belongs on a field or method, not on type %s", dir.name, ts.Name.Name)
		}
	}

	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return
	}
	for _, field := range st.Fields.List {
		dirs := s.directives(field.Doc)
		if len(dirs) == 0 {
			continue
		}
		if len(field.Names) == 0 {
			for _, dir := range dirs {
				s.errorf(diag.HostMisplaced, dir.span, "//cmd:%s cannot annotate an embedded field", dir.name)
			}
			continue
		}
		typ := s.typeRef(field.Type)
		for _, name := range field.Names {
			el := &element.Decl{
				Ident: name.Name,
				What:  element.KindField,
				Pkg:   s.pkg,
				Recv:  ts.Name.Name,
				Type:  typ,
				Mods:  exported(name.Name),
				Span:  s.span(name),
			}
			s.member(owner, el, dirs)
		}
	}
}

func (s *fileScanner) funcDecl(fd *ast.FuncDecl) {
	dirs := s.directives(fd.Doc)
	if len(dirs) == 0 {
		return
	}
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		for _, dir := range dirs {
			s.errorf(diag.HostMisplaced, dir.span, "//cmd:%s needs a method, %s is a function", dir.name, fd.Name.Name)
		}
		return
	}
	recv := receiverName(fd.Recv.List[0].Type)
	if recv == "" {
		s.errorf(diag.HostMalformed, s.span(fd.Name), "cannot determine receiver type of %s", fd.Name.Name)
		return
	}
	el := &element.Decl{
		Ident:  fd.Name.Name,
		What:   element.KindMethod,
		Pkg:    s.pkg,
		Recv:   recv,
		Type:   s.results(fd.Type.Results),
		Params: s.params(fd.Type.Params),
		Mods:   exported(fd.Name.Name) | element.Final,
		Span:   s.span(fd.Name),
	}
	s.member(s.owner(recv, s.span(fd.Name)), el, dirs)
}

func (s *fileScanner) member(owner *element.Decl, el *element.Decl, dirs []directive) {
	for _, dir := range dirs {
		switch dir.name {
		case "bind":
			if dir.args == "" {
				s.errorf(diag.HostMalformed, dir.span, "//cmd:bind needs a pattern")
				continue
			}
			s.add(host.Declaration{Owner: owner, Element: el, Kind: host.Binds, Patterns: []host.Pattern{{Text: dir.args, Span: dir.argSpan}}})
		case "let":
			if el.What != element.KindMethod {
				s.errorf(diag.HostMisplaced, dir.span, "//cmd:let only applies to methods")
				continue
			}
			param, target, ok := strings.Cut(dir.args, " ")
			target = strings.TrimSpace(target)
			if !ok || param == "" || target == "" {
				s.errorf(diag.HostMalformed, dir.span, "//cmd:let needs a parameter name and a pattern")
				continue
			}
			off := dir.argSpan.Start + u32(len(dir.args)-len(target))
			s.add(host.Declaration{
				Owner:    owner,
				Element:  el,
				Kind:     host.Let,
				Param:    param,
				Patterns: []host.Pattern{{Text: target, Span: source.Span{File: s.file.ID, Start: off, End: dir.argSpan.End}}},
			})
		default:
			s.errorf(diag.HostMisplaced, dir.span, "//cmd:%s belongs on a type, not on %s", dir.name, element.Describe(el))
		}
	}
}

// owner returns the type element a member hangs on; one value per name so
// repeated lookups in the file agree.
func (s *fileScanner) owner(name string, sp source.Span) *element.Decl {
	if d, ok := s.owners[name]; ok {
		return d
	}
	d := &element.Decl{Ident: name, What: element.KindType, Pkg: s.pkg, Mods: exported(name), Span: sp}
	s.owners[name] = d
	return d
}

func (s *fileScanner) add(d host.Declaration) {
	s.res.decls = append(s.res.decls, d)
}

// directives extracts //cmd: lines from a doc comment, reporting unknown ones.
func (s *fileScanner) directives(cg *ast.CommentGroup) []directive {
	if cg == nil {
		return nil
	}
	var out []directive
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, prefix) {
			continue
		}
		s.seen[c] = true
		if dir, ok := s.parse(c); ok {
			out = append(out, dir)
		}
	}
	return out
}

func (s *fileScanner) parse(c *ast.Comment) (directive, bool) {
	start := u32(s.tfile.Offset(c.Pos()))
	rest := c.Text[len(prefix):]
	name, args, _ := strings.Cut(rest, " ")
	dir := directive{
		name: name,
		span: source.Span{File: s.file.ID, Start: start, End: start + u32(len(c.Text))},
	}
	lead := len(args) - len(strings.TrimLeftFunc(args, unicode.IsSpace))
	dir.args = strings.TrimSpace(args)
	argStart := dir.span.End
	if dir.args != "" {
		argStart = start + u32(len(prefix)+len(name)+1+lead)
	}
	dir.argSpan = source.Span{File: s.file.ID, Start: argStart, End: argStart + u32(len(dir.args))}

	for _, known := range directives {
		if name == known {
			return dir, true
		}
	}
	msg := fmt.Sprintf("unknown directive //cmd:%s", name)
	d := diag.NewError(diag.HostUnknownDirective, source.Span{File: s.file.ID, Start: start, End: start + u32(len(prefix)+len(name))}, msg)
	if hint := suggest.Hint(name, directives); hint != "" {
		d = d.WithNote(d.Primary, hint)
	}
	s.res.diags = append(s.res.diags, d)
	return dir, false
}

func (s *fileScanner) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	s.res.diags = append(s.res.diags, diag.NewError(code, sp, fmt.Sprintf(format, args...)))
}

func (s *fileScanner) span(n ast.Node) source.Span {
	return source.Span{
		File:  s.file.ID,
		Start: u32(s.tfile.Offset(n.Pos())),
		End:   u32(s.tfile.Offset(n.End())),
	}
}

func (s *fileScanner) text(n ast.Node) string {
	sp := s.span(n)
	return string(s.file.Content[sp.Start:sp.End])
}

func (s *fileScanner) params(fl *ast.FieldList) []element.Param {
	if fl == nil {
		return nil
	}
	var out []element.Param
	for _, f := range fl.List {
		typ := s.typeRef(f.Type)
		if len(f.Names) == 0 {
			out = append(out, element.Param{Name: fmt.Sprintf("arg%d", len(out)), Type: typ, Span: s.span(f.Type)})
			continue
		}
		for _, n := range f.Names {
			out = append(out, element.Param{Name: n.Name, Type: typ, Span: s.span(n)})
		}
	}
	return out
}

func (s *fileScanner) results(fl *ast.FieldList) element.TypeRef {
	if fl == nil || len(fl.List) == 0 {
		return element.Void()
	}
	var all []element.TypeRef
	for _, f := range fl.List {
		n := max(len(f.Names), 1)
		for i := 0; i < n; i++ {
			all = append(all, s.typeRef(f.Type))
		}
	}
	if len(all) == 1 {
		return all[0]
	}
	return element.TypeRef{Tuple: true, Args: all, Expr: s.text(fl)}
}

func (s *fileScanner) typeRef(e ast.Expr) element.TypeRef {
	t := s.typeOf(e)
	t.Expr = s.text(e)
	return t
}

func (s *fileScanner) typeOf(e ast.Expr) element.TypeRef {
	switch x := e.(type) {
	case *ast.ParenExpr:
		return s.typeOf(x.X)
	case *ast.StarExpr:
		t := s.typeOf(x.X)
		if t.Pointer {
			return element.TypeRef{Name: s.text(e)}
		}
		t.Pointer = true
		return t
	case *ast.Ident:
		if predeclared[x.Name] {
			return element.TypeRef{Name: x.Name}
		}
		return element.TypeRef{Path: s.pkg, Name: x.Name}
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			if p, ok := s.imports[id.Name]; ok {
				return element.TypeRef{Path: p, Name: x.Sel.Name}
			}
		}
	case *ast.IndexExpr:
		t := s.typeOf(x.X)
		t.Args = []element.TypeRef{s.typeOf(x.Index)}
		return t
	case *ast.IndexListExpr:
		t := s.typeOf(x.X)
		for _, idx := range x.Indices {
			t.Args = append(t.Args, s.typeOf(idx))
		}
		return t
	}
	// срезы, карты, функции: непрозрачное написание
	return element.TypeRef{Name: s.text(e)}
}

func receiverName(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.StarExpr:
		return receiverName(x.X)
	case *ast.ParenExpr:
		return receiverName(x.X)
	case *ast.Ident:
		return x.Name
	case *ast.IndexExpr:
		return receiverName(x.X)
	case *ast.IndexListExpr:
		return receiverName(x.X)
	}
	return ""
}

func exported(name string) element.Modifiers {
	if token.IsExported(name) {
		return element.Exported
	}
	return 0
}

// u32 converts a byte offset into the file. FileSet positions are uint32
// as well, so a failure here is a bug.
func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("source offset %d out of range: %w", n, err))
	}
	return v
}
