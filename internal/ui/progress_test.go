package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cmdforge/internal/buildpipeline"
)

func TestProgressModelTracksStages(t *testing.T) {
	m := NewProgressModel("cmdforge generate", nil, nil).(*progressModel)
	rec := &buildpipeline.Recorder{}
	files := []string{"warps.go", "homes.go"}
	buildpipeline.Emit(rec, files, buildpipeline.StageLoad, buildpipeline.StatusDone, nil, 2*time.Millisecond)
	buildpipeline.Emit(rec, files, buildpipeline.StageBind, buildpipeline.StatusWorking, nil, 0)
	for _, ev := range rec.Events() {
		m.applyEvent(ev)
	}

	if got := len(m.files); got != 2 {
		t.Fatalf("files = %d, want 2", got)
	}
	if m.rows[0].status != buildpipeline.StatusDone || m.rows[1].status != buildpipeline.StatusWorking {
		t.Fatalf("rows = %+v", m.rows[:2])
	}
	if got, want := m.fraction(), 1.0/float64(len(buildpipeline.Stages)); got != want {
		t.Fatalf("fraction = %v, want %v", got, want)
	}
	view := m.View()
	for _, want := range []string{"cmdforge generate: binding", "2 files: warps.go, homes.go", "2.0 ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelShowsErrors(t *testing.T) {
	m := NewProgressModel("cmdforge check", []string{"a.go", "b.go", "c.go", "d.go"}, nil).(*progressModel)
	m.applyEvent(buildpipeline.Event{Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusError, Err: errors.New("disk full")})
	view := m.View()
	for _, want := range []string{"disk full", "(+1 more)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("generating", 7); got != "gene..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ok", 10); got != "ok" {
		t.Fatalf("truncate = %q", got)
	}
	// ширина считается в колонках, многоточие входит в неё
	if got := truncate("генерация", 7); got != "гене..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("生成中生成中", 7); got != "生成..." {
		t.Fatalf("truncate = %q", got)
	}
}
