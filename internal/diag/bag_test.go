package diag

import (
	"errors"
	"testing"

	"cmdforge/internal/source"
)

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	r := BagReporter{Bag: bag}
	r.Report(LexEmptyPattern, SevError, source.Span{}, "a", nil)
	r.Report(TreeDuplicateAlias, SevWarning, source.Span{}, "b", nil)
	r.Report(LexIllegalChar, SevError, source.Span{}, "c", nil)

	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d, want 2/1", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() || bag.Count(SevWarning) != 1 {
		t.Fatalf("unexpected counts: errors=%v warnings=%d", bag.HasErrors(), bag.Count(SevWarning))
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	bag := NewBag(10)
	bag.Add(New(SevWarning, TreeDuplicateAlias, source.Span{File: 1, Start: 4}, "w"))
	bag.Add(New(SevError, LintDuplicateCmd, source.Span{File: 0, Start: 9}, "e2"))
	bag.Add(New(SevWarning, BindUnusedTarget, source.Span{File: 0, Start: 1}, "w0"))
	bag.Add(New(SevError, AnaMissingConverter, source.Span{File: 0, Start: 1}, "e1"))
	bag.Sort()

	want := []Code{AnaMissingConverter, BindUnusedTarget, LintDuplicateCmd, TreeDuplicateAlias}
	got := bag.Codes()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 0, Start: 1, End: 3}
	r.Report(BindSlotTaken, SevError, sp, "dup", nil)
	r.Report(BindSlotTaken, SevError, sp, "dup", nil)
	r.Report(BindSlotTaken, SevError, sp, "other", nil)
	if bag.Len() != 2 {
		t.Fatalf("dedup kept %d diagnostics, want 2", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexIllegalChar:      "LEX1002",
		TreeKindMismatch:    "TRE2001",
		BindUnrecognized:    "BND3001",
		AnaMissingConverter: "ANA4001",
		HostParseError:      "HST5004",
		CfgUnknownLint:      "CFG6001",
		IOLoadFileError:     "IO7001",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

func TestRecoverFault(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		Faultf("codegen", "parameter %d unresolved", 2)
		return nil
	}
	err := run()
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	var f *Fault
	if !errors.As(err, &f) || f.Stage != "codegen" {
		t.Fatalf("expected *Fault from codegen, got %#v", err)
	}
}
