package pattern_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"cmdforge/internal/diag"
	"cmdforge/internal/pattern"
	"cmdforge/internal/source"
)

func lexWith(policy pattern.AliasPolicy, text string) ([]pattern.Token, *diag.Bag) {
	bag := diag.NewBag(16)
	lx := pattern.New(pattern.Options{Policy: policy, Reporter: diag.BagReporter{Bag: bag}})
	return lx.Lex(text, source.Span{}), bag
}

func TestLexValidPatterns(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []pattern.Token
	}{
		{
			name: "literal and argument",
			in:   "teleport <player>",
			want: []pattern.Token{
				{Lexeme: "teleport", Kind: pattern.Literal, Offset: 0, Len: 8},
				{Lexeme: "player", Kind: pattern.Argument, Offset: 9, Len: 8},
			},
		},
		{
			name: "aliases everywhere",
			in:   "  warp|w  set|s|s <name> ",
			want: []pattern.Token{
				{Lexeme: "warp", Kind: pattern.Literal, Aliases: []string{"w"}, Offset: 2, Len: 6},
				{Lexeme: "set", Kind: pattern.Literal, Aliases: []string{"s"}, Offset: 10, Len: 7},
				{Lexeme: "name", Kind: pattern.Argument, Offset: 18, Len: 6},
			},
		},
		{
			name: "punctuation in names",
			in:   "game:mode <x.y-z_1>",
			want: []pattern.Token{
				{Lexeme: "game:mode", Kind: pattern.Literal, Offset: 0, Len: 9},
				{Lexeme: "x.y-z_1", Kind: pattern.Argument, Offset: 10, Len: 9},
			},
		},
	}
	ignore := cmpopts.IgnoreFields(pattern.Token{}, "Pattern", "Origin")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, bag := lexWith(pattern.Unrestricted, tc.in)
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %v", bag.Items())
			}
			if diff := cmp.Diff(tc.want, got, ignore, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexMalformed(t *testing.T) {
	cases := []struct {
		in   string
		code diag.Code
	}{
		{"", diag.LexEmptyPattern},
		{"   ", diag.LexEmptyPattern},
		{"tele$port", diag.LexIllegalChar},
		{"give <item", diag.LexUnterminatedArg},
		{"give <>", diag.LexEmptyName},
		{"a||b", diag.LexEmptyName},
		{"spawn|", diag.LexUnterminatedAlias},
		{"give <item>|i", diag.LexArgumentAlias},
		{"tp <p|x>", diag.LexArgumentAlias},
		{"gi<ve", diag.LexMisplacedDelimiter},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, bag := lexWith(pattern.Unrestricted, tc.in)
			if got != nil {
				t.Fatalf("expected no tokens, got %v", got)
			}
			if bag.Len() == 0 || bag.Items()[0].Code != tc.code {
				t.Fatalf("want %s, got %v", tc.code.ID(), bag.Codes())
			}
		})
	}
}

func TestArgumentAliasInsideBrackets(t *testing.T) {
	bag := diag.NewBag(4)
	lx := pattern.New(pattern.Options{Reporter: diag.BagReporter{Bag: bag}})
	if toks := lx.Lex("tp <p|x>", source.Span{Start: 0, End: 8}); toks != nil {
		t.Fatalf("expected no tokens, got %v", toks)
	}
	if diff := cmp.Diff([]diag.Code{diag.LexArgumentAlias}, bag.Codes()); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
	if got := bag.Items()[0].Primary; got != (source.Span{Start: 5, End: 7}) {
		t.Fatalf("span = %v, want the |x part", got)
	}
}

// Смещения должны указывать в исходный текст, даже если он не в NFC.
func TestLexDecomposedInput(t *testing.T) {
	const text = "cafe\u0301 <joue\u0301ur>"
	origin := source.Span{File: 1, Start: 100, End: 100 + uint32(len(text))}
	lx := pattern.New(pattern.Options{})
	toks := lx.Lex(text, origin)
	if len(toks) != 2 {
		t.Fatalf("got %d tokens", len(toks))
	}
	if diff := cmp.Diff([]string{"caf\u00e9", "jou\u00e9ur"}, []string{toks[0].Lexeme, toks[1].Lexeme}); diff != "" {
		t.Fatalf("lexemes mismatch (-want +got):\n%s", diff)
	}
	if got := toks[1].Span(); got != (source.Span{File: 1, Start: 107, End: 117}) {
		t.Fatalf("argument span = %v", got)
	}

	bag := diag.NewBag(4)
	lx = pattern.New(pattern.Options{Reporter: diag.BagReporter{Bag: bag}})
	const bad = "cafe\u0301 <p$>"
	lx.Lex(bad, source.Span{Start: 100, End: 100 + uint32(len(bad))})
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexIllegalChar {
		t.Fatalf("want one LexIllegalChar, got %v", bag.Codes())
	}
	if got := bag.Items()[0].Primary; got != (source.Span{Start: 109, End: 110}) {
		t.Fatalf("illegal char span = %v, want the '$'", got)
	}
}

func TestAliasPolicy(t *testing.T) {
	if _, bag := lexWith(pattern.FirstTokenOnly, "tp|teleport <target>"); bag.Len() != 0 {
		t.Fatalf("first-token alias rejected: %v", bag.Items())
	}
	toks, bag := lexWith(pattern.FirstTokenOnly, "warp set|s <name>")
	if toks != nil || bag.Len() != 1 || bag.Items()[0].Code != diag.LexAliasNotAllowed {
		t.Fatalf("want one LexAliasNotAllowed, got tokens=%v codes=%v", toks, bag.Codes())
	}
	if _, bag := lexWith(pattern.Unrestricted, "warp set|s <name>"); bag.Len() != 0 {
		t.Fatalf("unrestricted policy rejected alias: %v", bag.Items())
	}
}

func TestLexCacheRestampsOrigin(t *testing.T) {
	lx := pattern.New(pattern.Options{})
	a := lx.Lex("heal <who>", source.Span{File: 1, Start: 10, End: 20})
	b := lx.Lex("heal <who>", source.Span{File: 2, Start: 30, End: 40})
	if st := lx.Stats(); st.Hits != 1 || st.Misses != 1 || st.Cached != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if a[1].Span() != (source.Span{File: 1, Start: 15, End: 20}) {
		t.Fatalf("first span = %v", a[1].Span())
	}
	if b[1].Span() != (source.Span{File: 2, Start: 35, End: 40}) {
		t.Fatalf("cached span = %v", b[1].Span())
	}
	lx.Reset()
	if st := lx.Stats(); st.Cached != 0 {
		t.Fatalf("reset kept %d entries", st.Cached)
	}
}

func TestMalformedPatternReportedAtEverySite(t *testing.T) {
	bag := diag.NewBag(8)
	lx := pattern.New(pattern.Options{Reporter: diag.BagReporter{Bag: bag}})
	lx.Lex("bad|", source.Span{Start: 0, End: 4})
	lx.Lex("bad|", source.Span{Start: 50, End: 54})
	if bag.Len() != 2 {
		t.Fatalf("want 2 diagnostics, got %d", bag.Len())
	}
}

func TestDisplayForm(t *testing.T) {
	toks, _ := lexWith(pattern.Unrestricted, "gamemode|gm <mode>")
	if got := pattern.Format(toks); got != "gamemode|gm <mode>" {
		t.Fatalf("Format = %q", got)
	}
}
