package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// fakeClock advances by step on every call.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)

	load := tm.Begin("load")
	tm.End(load, "2 files")
	bind := tm.Begin("bind")
	tm.End(bind, "")
	tm.End(bind, "again")
	tm.Begin("analyze") // не завершена

	want := Report{
		TotalMS: 2,
		Phases: []PhaseReport{
			{Name: "load", DurationMS: 1, Note: "2 files"},
			{Name: "bind", DurationMS: 1},
		},
	}
	if diff := cmp.Diff(want, tm.Report()); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	if _, ok := tm.Lookup("analyze"); ok {
		t.Fatalf("unfinished phase must not be found")
	}
	if p, ok := tm.Lookup("load"); !ok || p.Note != "2 files" {
		t.Fatalf("Lookup(load) = %+v, %v", p, ok)
	}
}

func TestTimerSlowest(t *testing.T) {
	tm := NewTimer()
	if _, ok := tm.Slowest(); ok {
		t.Fatalf("empty timer has no slowest phase")
	}
	step := time.Millisecond
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm.now = func() time.Time {
		clock = clock.Add(step)
		return clock
	}
	a := tm.Begin("a")
	tm.End(a, "")
	step = 5 * time.Millisecond
	b := tm.Begin("b")
	tm.End(b, "")

	p, ok := tm.Slowest()
	if !ok || p.Name != "b" || p.Dur != 5*time.Millisecond {
		t.Fatalf("Slowest() = %+v, %v", p, ok)
	}
}

func TestTimerSummary(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(time.Millisecond)
	idx := tm.Begin("lint")
	tm.End(idx, "6 passes")

	got := tm.Summary()
	for _, want := range []string{"timings:\n", "lint", "1.00 ms  // 6 passes", "total"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q does not contain %q", got, want)
		}
	}
}
