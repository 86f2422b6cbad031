// Package observ measures pipeline stages.
package observ

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Phase records the duration and note of one pipeline stage.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer tracks stages in the order they were started. Not safe for
// concurrent use; the pipeline runs stages sequentially.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8), now: time.Now} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index. Ending twice keeps the first result.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) || t.phases[idx].done {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
	p.done = true
}

// Lookup returns the first finished phase with the given name.
func (t *Timer) Lookup(name string) (Phase, bool) {
	for _, p := range t.phases {
		if p.Name == name && p.done {
			return p, true
		}
	}
	return Phase{}, false
}

// Slowest returns the finished phase with the longest duration.
func (t *Timer) Slowest() (Phase, bool) {
	var (
		best  Phase
		found bool
	)
	for _, p := range t.phases {
		if p.done && (!found || p.Dur > best.Dur) {
			best, found = p, true
		}
	}
	return best, found
}

// Summary returns the phases as an aligned table.
func (t *Timer) Summary() string {
	var sb strings.Builder
	_ = t.WriteSummary(&sb)
	return sb.String()
}

// WriteSummary writes the table Summary returns.
func (t *Timer) WriteSummary(w io.Writer) error {
	report := t.Report()
	if _, err := io.WriteString(w, "timings:\n"); err != nil {
		return err
	}
	for _, p := range report.Phases {
		line := fmt.Sprintf("  %-10s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  // " + p.Note
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "  %-10s %7.2f ms\n", "total", report.TotalMS)
	return err
}

// PhaseReport is the serialisable form of a finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report lists finished phases; unfinished ones are skipped.
func (t *Timer) Report() Report {
	var report Report
	var total time.Duration
	for _, phase := range t.phases {
		if !phase.done {
			continue
		}
		total += phase.Dur
		report.Phases = append(report.Phases, PhaseReport{
			Name:       phase.Name,
			DurationMS: toMillis(phase.Dur),
			Note:       phase.Note,
		})
	}
	report.TotalMS = toMillis(total)
	return report
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
