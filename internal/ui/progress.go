// Package ui renders pipeline progress in the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cmdforge/internal/buildpipeline"
)

type stageRow struct {
	stage   buildpipeline.Stage
	status  buildpipeline.Status
	elapsed time.Duration
	err     error
}

type progressModel struct {
	title   string
	events  <-chan buildpipeline.Event
	spinner spinner.Model
	prog    progress.Model
	rows    []stageRow
	files   []string
	seen    map[string]bool
	current buildpipeline.Stage
	width   int
	done    bool
}

type eventMsg buildpipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model with one row per pipeline
// stage. files may be nil; names arriving with events are added.
func NewProgressModel(title string, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	rows := make([]stageRow, len(buildpipeline.Stages))
	for i, st := range buildpipeline.Stages {
		rows[i] = stageRow{stage: st, status: buildpipeline.StatusQueued}
	}
	m := &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		rows:    rows,
		seen:    make(map[string]bool, len(files)),
		width:   80,
	}
	for _, f := range files {
		m.addFile(f)
	}
	return m
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(buildpipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if label := stageLabel(m.current); label != "" && !m.done {
		header = fmt.Sprintf("%s: %s", header, label)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")
	for _, row := range m.rows {
		status := styleStatus(row.status).Render(fmt.Sprintf("%-7s", row.status))
		line := fmt.Sprintf("  %-9s %s", row.stage, status)
		if row.status == buildpipeline.StatusDone || row.status == buildpipeline.StatusError {
			line += fmt.Sprintf(" %6.1f ms", float64(row.elapsed)/float64(time.Millisecond))
		}
		if row.err != nil {
			line += "  " + truncate(row.err.Error(), m.width-len(line)-2)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(m.files) > 0 {
		b.WriteString("\n  ")
		b.WriteString(truncate(m.fileSummary(), m.width-2))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

// fileSummary lists up to three inputs and counts the rest.
func (m *progressModel) fileSummary() string {
	const shown = 3
	names := m.files
	if len(names) > shown {
		names = names[:shown]
	}
	s := fmt.Sprintf("%d file", len(m.files))
	if len(m.files) != 1 {
		s += "s"
	}
	s += ": " + strings.Join(names, ", ")
	if rest := len(m.files) - len(names); rest > 0 {
		s += fmt.Sprintf(" (+%d more)", rest)
	}
	return s
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) addFile(name string) {
	if name == "" || m.seen[name] {
		return
	}
	m.seen[name] = true
	m.files = append(m.files, name)
}

// applyEvent updates the stage row; per-file events only register the
// file, since every stage covers all inputs at once.
func (m *progressModel) applyEvent(ev buildpipeline.Event) tea.Cmd {
	if ev.File != "" {
		m.addFile(ev.File)
		return nil
	}
	for i := range m.rows {
		if m.rows[i].stage != ev.Stage {
			continue
		}
		m.rows[i].status = ev.Status
		m.rows[i].elapsed = ev.Elapsed
		m.rows[i].err = ev.Err
	}
	m.current = ev.Stage
	return m.prog.SetPercent(m.fraction())
}

// fraction is the share of stages that reached a final status.
func (m *progressModel) fraction() float64 {
	finished := 0
	for _, row := range m.rows {
		switch row.status {
		case buildpipeline.StatusDone, buildpipeline.StatusError, buildpipeline.StatusCached:
			finished++
		}
	}
	return float64(finished) / float64(len(m.rows))
}

func stageLabel(stage buildpipeline.Stage) string {
	switch stage {
	case buildpipeline.StageLoad:
		return "loading"
	case buildpipeline.StageBind:
		return "binding"
	case buildpipeline.StageAnalyze:
		return "analyzing"
	case buildpipeline.StageLint:
		return "linting"
	case buildpipeline.StageGenerate:
		return "generating"
	case buildpipeline.StageWrite:
		return "writing"
	default:
		return ""
	}
}

func styleStatus(status buildpipeline.Status) lipgloss.Style {
	switch status {
	case buildpipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case buildpipeline.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case buildpipeline.StatusCached:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	case buildpipeline.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}

// Run renders events until the channel is closed. Input is not read, so
// Ctrl-C reaches the caller's signal handling.
func Run(title string, events <-chan buildpipeline.Event, out io.Writer) error {
	p := tea.NewProgram(NewProgressModel(title, nil, events), tea.WithOutput(out), tea.WithInput(nil))
	_, err := p.Run()
	return err
}
