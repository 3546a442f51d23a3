// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bass/internal/analysis"
	"bass/internal/param"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	// FineStep is the normalized change of one arrow key press.
	FineStep = 0.01
	// CoarseStep is the normalized change of one page key press.
	CoarseStep = 0.1

	defaultRefresh = 50 * time.Millisecond
	barWidth       = 30
)

// MeterReader supplies the latest meter values.
type MeterReader interface {
	Read() analysis.MeterReading
}

// Bypasser toggles the effect.
type Bypasser interface {
	SetBypass(bool)
	Bypassed() bool
}

// MonitorConfig wires the monitor to the running engine. Bypass is optional.
type MonitorConfig struct {
	Params   *param.Set
	Meter    MeterReader
	Bypass   Bypasser
	Refresh  time.Duration
	Subtitle string // Shown under the title, e.g. devices and rate
}

type tickMsg time.Time

// MonitorModel shows the parameters and meters and edits the parameters
// through the same targets the WebSocket clients write.
type MonitorModel struct {
	cfg      MonitorConfig
	params   []*param.Param
	selected int
	reading  analysis.MeterReading
	help     help.Model
	width    int
}

// NewMonitorModel returns a monitor bound to cfg.
func NewMonitorModel(cfg MonitorConfig) MonitorModel {
	if cfg.Refresh <= 0 {
		cfg.Refresh = defaultRefresh
	}
	return MonitorModel{
		cfg:    cfg,
		params: cfg.Params.All(),
		help:   help.New(),
	}
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.cfg.Refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh ticker.
func (m MonitorModel) Init() tea.Cmd {
	return m.tick()
}

// Selected returns the parameter the arrow keys currently edit.
func (m MonitorModel) Selected() *param.Param {
	return m.params[m.selected]
}

func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tickMsg:
		if m.cfg.Meter != nil {
			m.reading = m.cfg.Meter.Read()
		}
		return m, m.tick()

	case tea.KeyMsg:
		p := m.Selected()
		switch {
		case key.Matches(msg, monitorKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, monitorKeys.Up):
			m.selected = (m.selected + len(m.params) - 1) % len(m.params)
		case key.Matches(msg, monitorKeys.Down):
			m.selected = (m.selected + 1) % len(m.params)
		case key.Matches(msg, monitorKeys.Increase):
			nudge(p, FineStep)
		case key.Matches(msg, monitorKeys.Decrease):
			nudge(p, -FineStep)
		case key.Matches(msg, monitorKeys.Coarse):
			nudge(p, CoarseStep)
		case key.Matches(msg, monitorKeys.CoarseDn):
			nudge(p, -CoarseStep)
		case key.Matches(msg, monitorKeys.Reset):
			p.Set(p.Default)
		case key.Matches(msg, monitorKeys.Bypass):
			if m.cfg.Bypass != nil {
				m.cfg.Bypass.SetBypass(!m.cfg.Bypass.Bypassed())
			}
		case key.Matches(msg, monitorKeys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

// nudge moves p by step in normalized units, clamped to [0, 1].
func nudge(p *param.Param, step float32) {
	n := p.Normalized() + step
	p.SetNormalized(min(max(n, 0), 1))
}

func (m MonitorModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("bass"))
	if m.cfg.Subtitle != "" {
		sb.WriteString(" " + dimStyle.Render(m.cfg.Subtitle))
	}
	sb.WriteString("\n\n")

	for i, p := range m.params {
		pointer := "  "
		name := labelStyle.Render(p.Name)
		if i == m.selected {
			pointer = highlightStyle.Render("▶ ")
			name = highlightStyle.Render(labelStyle.Render(p.Name))
		}
		fmt.Fprintf(&sb, "%s%s %s %s\n", pointer, name, bar(p.Normalized(), barWidth), p.String())
	}
	sb.WriteString("\n")

	r := m.reading
	fmt.Fprintf(&sb, "  %s %s %s\n", labelStyle.Render("input"), bar(r.InputRMS, barWidth), formatLevel(r.InputRMS))
	fmt.Fprintf(&sb, "  %s %s %s\n", labelStyle.Render("output"), bar(r.OutputRMS, barWidth), formatLevel(r.OutputRMS))

	gate := dimStyle.Render("closing")
	if r.Open {
		gate = highlightStyle.Render("open")
	}
	fmt.Fprintf(&sb, "  %s %s %s\n", labelStyle.Render("gate"), bar(r.Gate, barWidth), gate)

	if m.cfg.Bypass != nil && m.cfg.Bypass.Bypassed() {
		sb.WriteString("\n  " + warnStyle.Render("BYPASSED") + "\n")
	}

	fmt.Fprintf(&sb, "\n  %s\n\n", dimStyle.Render(fmt.Sprintf("%d blocks", r.Blocks)))
	sb.WriteString(m.help.View(monitorKeys))
	return sb.String()
}

// formatLevel shows an RMS value in dBFS.
func formatLevel(rms float32) string {
	if rms <= 0 {
		return "-inf dBFS"
	}
	return fmt.Sprintf("%.1f dBFS", param.GainToDB(rms))
}

// RunMonitor runs the monitor until the user quits or ctx is cancelled.
func RunMonitor(ctx context.Context, cfg MonitorConfig) error {
	_, err := tea.NewProgram(NewMonitorModel(cfg), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
