package pattern

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"cmdforge/internal/diag"
	"cmdforge/internal/source"
)

// Lexer turns command patterns into tokens. Results are memoised per raw
// pattern text; the cache lives as long as the Lexer and is dropped by Reset.
type Lexer struct {
	opts   Options
	cache  map[string][]Token
	hits   int
	misses int
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int
	Misses int
	Cached int
}

func New(opts Options) *Lexer {
	return &Lexer{
		opts:  opts,
		cache: make(map[string][]Token),
	}
}

// Policy returns the alias policy the lexer was built with.
func (lx *Lexer) Policy() AliasPolicy {
	return lx.opts.Policy
}

// Reset drops memoised results. Call it between compilation runs.
func (lx *Lexer) Reset() {
	clear(lx.cache)
	lx.hits, lx.misses = 0, 0
}

func (lx *Lexer) Stats() Stats {
	return Stats{Hits: lx.hits, Misses: lx.misses, Cached: len(lx.cache)}
}

// Lex tokenizes one pattern. origin is the span of the pattern text in its
// declaration and is used for diagnostics and copied into every token.
// Malformed patterns are reported and yield nil.
func (lx *Lexer) Lex(text string, origin source.Span) []Token {
	if cached, ok := lx.cache[text]; ok {
		lx.hits++
		return stamp(cached, origin)
	}
	lx.misses++

	// смещения считаются по исходному тексту, в NFC приводятся только имена
	s := scanner{lx: lx, text: text, origin: origin}
	tokens := s.run()
	if s.failed {
		// кэшируем только удачные разборы: ошибка должна всплыть в каждом месте
		return nil
	}
	lx.cache[text] = tokens
	return stamp(tokens, origin)
}

func stamp(tokens []Token, origin source.Span) []Token {
	out := slices.Clone(tokens)
	for i := range out {
		out[i].Origin = origin
	}
	return out
}

type scanner struct {
	lx     *Lexer
	text   string
	origin source.Span
	failed bool
}

func (s *scanner) errorf(code diag.Code, start, end int, format string, args ...any) {
	s.failed = true
	if s.lx.opts.Reporter == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if s.text != "" {
		msg = fmt.Sprintf("%s in pattern %q", msg, s.text)
	}
	s.lx.opts.Reporter.Report(code, diag.SevError, s.origin.Sub(u32(start), u32(end)), msg, nil)
}

func (s *scanner) run() []Token {
	if strings.TrimSpace(s.text) == "" {
		s.errorf(diag.LexEmptyPattern, 0, len(s.text), "command pattern is empty")
		return nil
	}
	var tokens []Token
	for i, w := range splitWords(s.text) {
		if tok, ok := s.word(w.text, w.off, i); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func (s *scanner) word(w string, off, index int) (Token, bool) {
	if strings.HasPrefix(w, "<") {
		return s.argument(w, off)
	}
	if i := strings.IndexAny(w, "<>"); i >= 0 {
		s.errorf(diag.LexMisplacedDelimiter, off+i, off+i+1, "unexpected %q inside literal %q", w[i], w)
		return Token{}, false
	}

	parts := strings.Split(w, "|")
	ok := true
	pos := off
	for i, part := range parts {
		switch {
		case part == "" && i == len(parts)-1 && i > 0:
			s.errorf(diag.LexUnterminatedAlias, pos-1, pos, "alias group of %q ends with '|'", parts[0])
			ok = false
		case part == "":
			s.errorf(diag.LexEmptyName, pos, pos+1, "empty name in %q", w)
			ok = false
		default:
			ok = s.checkName(part, pos) && ok
		}
		pos += len(part) + 1
	}
	if !ok {
		return Token{}, false
	}

	tok := Token{Lexeme: norm.NFC.String(parts[0]), Kind: Literal, Offset: u32(off), Len: u32(len(w)), Pattern: s.text}
	for _, alias := range parts[1:] {
		alias = norm.NFC.String(alias)
		if alias != tok.Lexeme && !slices.Contains(tok.Aliases, alias) {
			tok.Aliases = append(tok.Aliases, alias)
		}
	}
	if len(parts) > 1 && index > 0 && s.lx.opts.Policy == FirstTokenOnly {
		s.errorf(diag.LexAliasNotAllowed, off+len(parts[0]), off+len(w),
			"aliases are only allowed on the first token, %q is token %d", parts[0], index+1)
		return Token{}, false
	}
	return tok, true
}

func (s *scanner) argument(w string, off int) (Token, bool) {
	end := strings.IndexByte(w, '>')
	if end < 0 {
		s.errorf(diag.LexUnterminatedArg, off, off+len(w), "argument %q is missing '>'", w)
		return Token{}, false
	}
	name := w[1:end]
	if name == "" {
		s.errorf(diag.LexEmptyName, off, off+end+1, "argument has no name")
		return Token{}, false
	}
	if strings.ContainsRune(name, '<') {
		s.errorf(diag.LexMisplacedDelimiter, off, off+end+1, "nested '<' in argument %q", w[:end+1])
		return Token{}, false
	}
	if bar := strings.IndexByte(name, '|'); bar >= 0 {
		s.errorf(diag.LexArgumentAlias, off+1+bar, off+end, "argument <%s> cannot have aliases", name[:bar])
		return Token{}, false
	}
	if rest := w[end+1:]; rest != "" {
		if strings.HasPrefix(rest, "|") {
			s.errorf(diag.LexArgumentAlias, off+end+1, off+len(w), "argument <%s> cannot have aliases", name)
		} else {
			s.errorf(diag.LexMisplacedDelimiter, off+end+1, off+len(w), "unexpected %q after argument <%s>", rest, name)
		}
		return Token{}, false
	}
	if !s.checkName(name, off+1) {
		return Token{}, false
	}
	return Token{Lexeme: norm.NFC.String(name), Kind: Argument, Offset: u32(off), Len: u32(len(w)), Pattern: s.text}, true
}

// checkName accepts combining marks after the first rune so that
// decomposed input passes the same way its NFC form does.
func (s *scanner) checkName(name string, off int) bool {
	for i, r := range name {
		if isNameRune(r) || (i > 0 && unicode.Is(unicode.M, r)) {
			continue
		}
		s.errorf(diag.LexIllegalChar, off+i, off+i+utf8.RuneLen(r), "illegal character %q in %q", r, name)
		return false
	}
	return true
}

func isNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' || r == ':'
}

type word struct {
	text string
	off  int
}

func splitWords(text string) []word {
	var out []word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, word{text: text[start:i], off: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word{text: text[start:], off: start})
	}
	return out
}

func u32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("pattern offset overflow: %w", err))
	}
	return v
}
