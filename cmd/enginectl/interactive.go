package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/wippyai/enginecore/engine"
	"github.com/wippyai/enginecore/errors"
	"github.com/wippyai/enginecore/lifecycle"
	"github.com/wippyai/enginecore/memory"
)

const refreshInterval = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type monitorModel struct {
	err      error
	eng      *engine.Engine
	cancel   context.CancelFunc
	ctx      context.Context
	bar      progress.Model
	report   *memory.Report
	snap     lifecycle.Snapshot
	stats    memory.Stats
	workload engine.Workload
	done     bool
}

type refreshMsg time.Time

type runDoneMsg struct {
	err error
}

func newMonitorModel(e *engine.Engine, w engine.Workload) *monitorModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &monitorModel{
		eng:      e,
		ctx:      ctx,
		cancel:   cancel,
		workload: w,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m *monitorModel) Init() tea.Cmd {
	return tea.Batch(m.runWorkload, refresh())
}

func (m *monitorModel) runWorkload() tea.Msg {
	return runDoneMsg{err: m.eng.Run(m.ctx, m.workload)}
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			m.shutdown()
			return m, tea.Quit

		case "p", " ":
			switch m.eng.State().Phase() {
			case lifecycle.Running:
				m.setErr(m.eng.Pause())
			case lifecycle.Paused:
				m.setErr(m.eng.Resume())
			}

		case "s":
			m.cancel()
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-20, 60), 10)

	case refreshMsg:
		m.snap = m.eng.State().Snapshot()
		m.stats = m.eng.Allocator().Stats()
		if m.done {
			return m, nil
		}
		return m, refresh()

	case runDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.eng.Fail(msg.err)
			m.err = msg.err
		}
		m.shutdown()
		m.snap = m.eng.State().Snapshot()
		m.stats = m.eng.Allocator().Stats()
		m.done = true
	}

	return m, nil
}

func (m *monitorModel) setErr(err error) {
	if err != nil {
		m.err = err
	}
}

func (m *monitorModel) shutdown() {
	if m.report != nil {
		return
	}
	r := m.eng.Shutdown()
	m.report = &r
}

func (m *monitorModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Engine Monitor"))
	b.WriteString(" ")
	b.WriteString(m.snap.RunID)
	b.WriteString("\n\n")

	m.row(&b, "phase", phaseStyle.Foreground(phaseColor(m.snap.Phase)).Render(m.snap.Phase.String()))
	m.row(&b, "uptime", valueStyle.Render(m.snap.Uptime.Round(time.Millisecond).String()))
	m.row(&b, "ticks", valueStyle.Render(fmt.Sprint(m.snap.Ticks)))
	m.row(&b, "frames", valueStyle.Render(fmt.Sprint(m.snap.Frames)))
	m.row(&b, "entities", valueStyle.Render(fmt.Sprint(m.snap.Entities)))
	m.row(&b, "chunks", valueStyle.Render(fmt.Sprint(m.snap.Chunks)))
	b.WriteString("\n")

	m.row(&b, "allocator", valueStyle.Render(m.stats.Mode.String()))
	m.row(&b, "blocks", valueStyle.Render(fmt.Sprint(m.stats.AllocationCount)))
	m.row(&b, "off-heap", valueStyle.Render(formatBytes(m.stats.AllocatedBytes)))
	if m.stats.Limit > 0 {
		pct := float64(m.stats.AllocatedBytes) / float64(m.stats.Limit)
		m.row(&b, "ceiling", m.bar.ViewAs(min(pct, 1))+" "+formatBytes(m.stats.Limit))
	} else {
		m.row(&b, "ceiling", helpStyle.Render("unlimited"))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	if m.report != nil {
		b.WriteString("\n")
		if m.report.Leaked() {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Leaked %d allocations, %s",
				m.report.AllocationCount, formatBytes(m.report.AllocatedBytes))))
		} else {
			b.WriteString(valueStyle.Render("Shut down cleanly"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(helpStyle.Render("q quit"))
	} else {
		b.WriteString(helpStyle.Render("p pause/resume • s stop • q quit"))
	}
	return b.String()
}

func (m *monitorModel) row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func phaseColor(p lifecycle.Phase) lipgloss.Color {
	switch p {
	case lifecycle.Running:
		return lipgloss.Color("#04B575")
	case lifecycle.Paused, lifecycle.Initializing, lifecycle.Ready:
		return lipgloss.Color("#FFB86C")
	case lifecycle.Stopping, lifecycle.Stopped:
		return lipgloss.Color("#8BE9FD")
	case lifecycle.Error:
		return lipgloss.Color("#FF6B6B")
	default:
		return lipgloss.Color("#FAFAFA")
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func monitorCmd(ctx *cli.Context) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.Unsupported(errors.PhaseBoundary, "monitor requires a terminal; use run instead")
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	w := workloadFromFlags(ctx, cfg)
	w.Ticks = 0

	m := newMonitorModel(e, w)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
