// internal/tui/progress.go
// Package tui renders a live progress display for a benchmark run.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/enginemark/internal/appconfig"
	"github.com/mwiater/enginemark/internal/bench"
)

var (
	engineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	stageStyle  = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
)

type (
	benchEventMsg bench.Event
	benchDoneMsg  struct{}
)

type progressModel struct {
	events <-chan bench.Event

	spinner spinner.Model
	bar     progress.Model

	totalLevels int
	doneLevels  int
	engine      string
	stage       string
	completed   []string
	quitting    bool
}

func newProgressModel(events <-chan bench.Event, totalLevels int) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return progressModel{
		events:      events,
		spinner:     s,
		bar:         progress.New(progress.WithDefaultGradient()),
		totalLevels: totalLevels,
		stage:       "starting",
	}
}

// waitForEvent blocks on the event channel and converts driver progress into
// tea messages. A closed channel means the run is over.
func waitForEvent(events <-chan bench.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return benchDoneMsg{}
		}
		return benchEventMsg(ev)
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 8
		return m, nil

	case benchEventMsg:
		m.applyEvent(bench.Event(msg))
		return m, waitForEvent(m.events)

	case benchDoneMsg:
		m.quitting = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *progressModel) applyEvent(ev bench.Event) {
	m.engine = ev.Engine
	switch ev.Stage {
	case bench.StageWarmup:
		m.stage = "warming up"
	case bench.StageLevelStart:
		m.stage = fmt.Sprintf("concurrency %d", ev.Level)
	case bench.StageLevelDone:
		m.doneLevels++
		if ev.Result != nil {
			m.completed = append(m.completed, fmt.Sprintf("%s concurrency %d: %.2f req/s, ttft %s",
				ev.Engine, ev.Level, ev.Result.Throughput, ev.Result.AvgTTFT.Round(time.Millisecond)))
		}
	case bench.StageEngineDone:
		m.stage = "finished"
	}
}

func (m progressModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s %s\n\n",
		m.spinner.View(),
		engineStyle.Render(m.engine),
		stageStyle.Render(m.stage)))

	percent := 0.0
	if m.totalLevels > 0 {
		percent = float64(m.doneLevels) / float64(m.totalLevels)
	}
	b.WriteString(m.bar.ViewAs(percent))
	b.WriteString("\n\n")

	for _, line := range m.completed {
		b.WriteString(doneStyle.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

// Run executes the benchmark behind a live progress display and returns the
// comparison once both engines are done. Quitting the display does not cancel
// the benchmark; cancel ctx for that.
func Run(ctx context.Context, cfg *appconfig.Config) (*bench.Comparison, error) {
	events := make(chan bench.Event, 16)

	type outcome struct {
		comparison *bench.Comparison
		err        error
	}
	results := make(chan outcome, 1)

	go func() {
		comparison, err := bench.Run(ctx, cfg, func(ev bench.Event) { events <- ev })
		close(events)
		results <- outcome{comparison: comparison, err: err}
	}()

	model := newProgressModel(events, 2*len(cfg.ConcurrencyLevels))
	_, displayErr := tea.NewProgram(model).Run()

	// Keep draining so the driver never blocks on a dead display.
	go func() {
		for range events {
		}
	}()

	out := <-results
	if displayErr != nil && out.err == nil {
		return nil, fmt.Errorf("progress display: %w", displayErr)
	}
	return out.comparison, out.err
}
