// Package manifest reads element declarations from a YAML file, for hosts
// that are not Go source trees:
//
//	package: example.com/game
//	supers:
//	  example.com/game.PlayerType: [cmdforge/pkg/dispatch.ArgumentType[*example.com/game.Player]]
//	types:
//	  - name: Warps
//	    commands: ["warp|w <name>"]
//	    fields:
//	      - name: NameArg
//	        type: cmdforge/pkg/dispatch.ArgumentType[string]
//	        bind: ["<name>"]
//	    methods:
//	      - name: Warp
//	        result: int
//	        params:
//	          - {name: ctx, type: "*cmdforge/pkg/dispatch.Context"}
//	          - {name: target, type: string}
//	        bind: ["warp <name>"]
//	        let: {target: "<name>"}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"cmdforge/internal/diag"
	"cmdforge/internal/element"
	"cmdforge/internal/host"
	"cmdforge/internal/source"
)

// Manifest is the document root.
type Manifest struct {
	Package string              `yaml:"package"`
	Supers  map[string][]string `yaml:"supers"`
	Types   []Type              `yaml:"types"`
}

// Type declares one scope type and its members.
type Type struct {
	Name      yaml.Node   `yaml:"name"`
	Commands  []yaml.Node `yaml:"commands"`
	Package   yaml.Node   `yaml:"package"`
	Modifiers []string    `yaml:"modifiers"`
	Fields    []Member    `yaml:"fields"`
	Methods   []Member    `yaml:"methods"`
}

// Member is a field (Type set) or a method (Result and Params set).
type Member struct {
	Name      yaml.Node            `yaml:"name"`
	Type      string               `yaml:"type"`
	Result    string               `yaml:"result"`
	Params    []Param              `yaml:"params"`
	Modifiers []string             `yaml:"modifiers"`
	Bind      []yaml.Node          `yaml:"bind"`
	Let       map[string]yaml.Node `yaml:"let"`
}

type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Load reads path into files and decodes it.
func Load(path string, files *source.FileSet, r diag.Reporter) ([]host.Declaration, error) {
	id, err := files.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Decode(files.Get(id), r), nil
}

// Decode turns an already loaded manifest into declarations in document
// order. Problems are reported to r; a document that cannot be decoded
// yields no declarations.
func Decode(f *source.File, r diag.Reporter) []host.Declaration {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(f.Content))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		diag.ReportError(r, diag.HostParseError, source.Span{File: f.ID}, fmt.Sprintf("invalid manifest: %v", err)).Emit()
		return nil
	}
	if m.Package == "" {
		diag.ReportError(r, diag.HostMalformed, source.Span{File: f.ID}, "manifest has no package").Emit()
		return nil
	}
	d := decoder{file: f, r: r, pkg: m.Package, supers: make(map[string][]element.TypeRef)}
	for name, list := range m.Supers {
		key, err := element.ParseTypeRef(name)
		if err != nil {
			diag.ReportError(r, diag.HostMalformed, source.Span{File: f.ID}, fmt.Sprintf("supers: %v", err)).Emit()
			continue
		}
		for _, s := range list {
			t, err := element.ParseTypeRef(s)
			if err != nil {
				diag.ReportError(r, diag.HostMalformed, source.Span{File: f.ID}, fmt.Sprintf("supers of %s: %v", name, err)).Emit()
				continue
			}
			d.supers[key.Key()] = append(d.supers[key.Key()], t)
		}
	}
	for i := range m.Types {
		d.typ(&m.Types[i])
	}
	return d.out
}

type decoder struct {
	file   *source.File
	r      diag.Reporter
	pkg    string
	supers map[string][]element.TypeRef
	out    []host.Declaration
}

func (d *decoder) typ(t *Type) {
	if t.Name.Value == "" {
		d.errorf(d.nodeSpan(&t.Name), "type without a name")
		return
	}
	owner := &element.Decl{
		Ident: t.Name.Value,
		What:  element.KindType,
		Pkg:   d.pkg,
		Mods:  d.modifiers(t.Modifiers, element.Exported, &t.Name),
		Span:  d.nodeSpan(&t.Name),
	}
	for i := range t.Commands {
		d.out = append(d.out, host.Declaration{Owner: owner, Element: owner, Kind: host.Commands, Patterns: []host.Pattern{d.pattern(&t.Commands[i])}})
	}
	if t.Package.Value != "" {
		d.out = append(d.out, host.Declaration{Owner: owner, Element: owner, Kind: host.Package, Patterns: []host.Pattern{d.pattern(&t.Package)}})
	}
	for i := range t.Fields {
		m := &t.Fields[i]
		if m.Result != "" || len(m.Params) > 0 || len(m.Let) > 0 {
			d.errorf(d.nodeSpan(&m.Name), "field %s cannot have result, params or let", m.Name.Value)
			continue
		}
		typ, ok := d.typeRef(m.Type, &m.Name)
		if !ok {
			continue
		}
		el := &element.Decl{
			Ident: m.Name.Value,
			What:  element.KindField,
			Pkg:   d.pkg,
			Recv:  owner.Ident,
			Type:  typ,
			Mods:  d.modifiers(m.Modifiers, element.Exported, &m.Name),
			Span:  d.nodeSpan(&m.Name),
		}
		d.member(owner, el, m)
	}
	for i := range t.Methods {
		m := &t.Methods[i]
		if m.Type != "" {
			d.errorf(d.nodeSpan(&m.Name), "method %s: use result, not type", m.Name.Value)
			continue
		}
		res := element.Void()
		if m.Result != "" {
			var ok bool
			if res, ok = d.typeRef(m.Result, &m.Name); !ok {
				continue
			}
		}
		el := &element.Decl{
			Ident: m.Name.Value,
			What:  element.KindMethod,
			Pkg:   d.pkg,
			Recv:  owner.Ident,
			Type:  res,
			Mods:  d.modifiers(m.Modifiers, element.Exported|element.Final, &m.Name),
			Span:  d.nodeSpan(&m.Name),
		}
		bad := false
		for _, p := range m.Params {
			pt, ok := d.typeRef(p.Type, &m.Name)
			if !ok {
				bad = true
				break
			}
			el.Params = append(el.Params, element.Param{Name: p.Name, Type: pt, Span: el.Span})
		}
		if bad {
			continue
		}
		d.member(owner, el, m)
	}
}

func (d *decoder) member(owner, el *element.Decl, m *Member) {
	if el.Ident == "" {
		d.errorf(d.nodeSpan(&m.Name), "%s without a name", el.What)
		return
	}
	for i := range m.Bind {
		d.out = append(d.out, host.Declaration{Owner: owner, Element: el, Kind: host.Binds, Patterns: []host.Pattern{d.pattern(&m.Bind[i])}})
	}
	params := make([]string, 0, len(m.Let))
	for p := range m.Let {
		params = append(params, p)
	}
	sort.Strings(params)
	for _, p := range params {
		n := m.Let[p]
		d.out = append(d.out, host.Declaration{Owner: owner, Element: el, Kind: host.Let, Param: p, Patterns: []host.Pattern{d.pattern(&n)}})
	}
}

func (d *decoder) typeRef(s string, at *yaml.Node) (element.TypeRef, bool) {
	if strings.TrimSpace(s) == "" {
		d.errorf(d.nodeSpan(at), "%s: missing type", at.Value)
		return element.TypeRef{}, false
	}
	t, err := element.ParseTypeRef(s)
	if err != nil {
		d.errorf(d.nodeSpan(at), "%s: %v", at.Value, err)
		return element.TypeRef{}, false
	}
	d.link(&t, 0)
	return t, true
}

func (d *decoder) link(t *element.TypeRef, depth int) {
	for i := range t.Args {
		d.link(&t.Args[i], depth)
	}
	sup, ok := d.supers[t.Elem().Key()]
	if !ok || depth > 8 {
		return
	}
	t.Supers = append([]element.TypeRef(nil), sup...)
	for i := range t.Supers {
		d.link(&t.Supers[i], depth+1)
	}
}

func (d *decoder) modifiers(names []string, def element.Modifiers, at *yaml.Node) element.Modifiers {
	if names == nil {
		return def
	}
	var m element.Modifiers
	for _, n := range names {
		switch n {
		case "exported":
			m |= element.Exported
		case "abstract":
			m |= element.Abstract
		case "final":
			m |= element.Final
		default:
			d.errorf(d.nodeSpan(at), "%s: unknown modifier %q", at.Value, n)
		}
	}
	return m
}

func (d *decoder) pattern(n *yaml.Node) host.Pattern {
	sp := d.nodeSpan(n)
	if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		sp.Start++
	}
	sp.End = sp.Start + uint32(len(n.Value))
	return host.Pattern{Text: n.Value, Span: sp}
}

// nodeSpan maps a node position to file offsets; yaml columns are 1-based.
func (d *decoder) nodeSpan(n *yaml.Node) source.Span {
	if n.Line == 0 {
		return source.Span{File: d.file.ID}
	}
	off := d.file.Offset(source.LineCol{Line: uint32(n.Line), Col: uint32(n.Column)})
	return source.Span{File: d.file.ID, Start: off, End: off + uint32(len(n.Value))}
}

func (d *decoder) errorf(sp source.Span, format string, args ...any) {
	diag.ReportError(d.r, diag.HostMalformed, sp, fmt.Sprintf(format, args...)).Emit()
}
