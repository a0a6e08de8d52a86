// Package tui renders a run: an interactive bubbletea view that polls the
// run's event queue, and a plain line sink for pipes and CI logs.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"imgopt/internal/processor"
)

// PollInterval is how often the view drains the event queue.
const PollInterval = 100 * time.Millisecond

type Model struct {
	queue  *processor.EventQueue
	cancel context.CancelFunc
	bar    progress.Model

	started     time.Time
	completed   int
	total       int
	last        string
	stats       processor.Stats
	done        bool
	interrupted bool
}

type tickMsg time.Time

// NewModel watches queue. cancel is called when the user interrupts; the
// view keeps polling until the run reports Done.
func NewModel(queue *processor.EventQueue, total int, cancel context.CancelFunc) Model {
	return Model{
		queue:   queue,
		cancel:  cancel,
		bar:     progress.New(progress.WithGradient(string(ColorAccentAlt), string(ColorSuccess)), progress.WithoutPercentage()),
		started: time.Now(),
		total:   total,
	}
}

func (m Model) Init() tea.Cmd {
	return poll()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.drain()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.interrupted && m.cancel != nil {
				m.cancel()
			}
			m.interrupted = true
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = min(60, max(20, msg.Width-10))
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) drain() (tea.Model, tea.Cmd) {
	var lines []string
	for _, ev := range m.queue.Drain() {
		switch e := ev.(type) {
		case processor.LogLine:
			lines = append(lines, StyleLogLine(e.Text))
			m.last = e.Text
		case processor.Progress:
			m.completed = e.Completed
			m.total = e.Total
		case processor.Done:
			m.stats = e.Stats
			m.done = true
		}
	}

	var cmds []tea.Cmd
	if len(lines) > 0 {
		cmds = append(cmds, tea.Println(strings.Join(lines, "\n")))
	}
	if m.done {
		cmds = append(cmds, tea.Quit)
	} else {
		cmds = append(cmds, poll())
	}
	return m, tea.Sequence(cmds...)
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = min(1, float64(m.completed)/float64(m.total))
	}

	status := dimStyle.Render("ctrl+c to stop")
	if m.interrupted {
		status = warnStyle.Render("stopping after the current file…")
	}

	lines := []string{
		titleStyle.Render("imgopt"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.completed, m.total)),
		m.bar.ViewAs(ratio),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", time.Since(m.started).Round(time.Second))),
		status,
	}
	return strings.Join(lines, "\n")
}

// Stats is the final snapshot once Done has been seen.
func (m Model) Stats() processor.Stats { return m.stats }

func (m Model) Done() bool { return m.done }

func (m Model) Interrupted() bool { return m.interrupted }

func poll() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
