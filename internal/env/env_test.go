package env

import (
	"testing"

	"cmdforge/internal/diag"
	"cmdforge/internal/source"
)

func TestWarningsDoNotSetErrorFlag(t *testing.T) {
	e := New(10)
	e.Warnf(diag.TreeDuplicateAlias, source.Span{}, "alias %q repeated", "tp").Emit()
	if e.HasError() {
		t.Fatal("warning set the error flag")
	}
	if e.Warnings() != 1 || e.Diagnostics().Len() != 1 {
		t.Fatalf("warnings=%d len=%d", e.Warnings(), e.Diagnostics().Len())
	}
}

func TestErrorPastLimitStillCounts(t *testing.T) {
	e := New(1)
	e.Warnf(diag.TreeDuplicateAlias, source.Span{}, "first").Emit()
	e.Errorf(diag.AnaMissingConverter, source.Span{}, "second").Emit()
	if !e.HasError() {
		t.Fatal("dropped error did not set the error flag")
	}
	if e.Diagnostics().Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", e.Diagnostics().Dropped())
	}
}

func TestDuplicatesAreReportedOnce(t *testing.T) {
	e := New(10)
	sp := source.Span{File: 1, Start: 3, End: 8}
	for i := 0; i < 3; i++ {
		e.Errorf(diag.LexIllegalChar, sp, "illegal character %q", '$').Emit()
	}
	if got := e.Diagnostics().Len(); got != 1 {
		t.Fatalf("got %d diagnostics, want 1", got)
	}
}

func TestReset(t *testing.T) {
	e := New(10)
	e.Errorf(diag.AnaMissingConverter, source.Span{}, "boom").Emit()
	tree := e.Tree()
	e.Reset()
	if e.HasError() || e.Diagnostics().Len() != 0 {
		t.Fatal("Reset kept state")
	}
	if e.Tree() == tree {
		t.Fatal("Reset kept the namespace tree")
	}
	e.Errorf(diag.AnaMissingConverter, source.Span{}, "boom").Emit()
	if e.Diagnostics().Len() != 1 {
		t.Fatal("dedup state survived Reset")
	}
}
