// Package tui renders a live terminal view of a running evolution:
// current abundances per species plus an electron-abundance history
// graph, updated as steps are accepted.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/config"
	"github.com/san-kum/chemevol/internal/evolve"
	"github.com/san-kum/chemevol/internal/logging"
	"github.com/san-kum/chemevol/internal/networks"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	graphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type snapshot struct {
	t     float64
	dt    float64
	y     chem.State
	steps int
}

type doneMsg struct {
	status evolve.Status
	err    error
}

type tickMsg time.Time

type liveObserver struct {
	ch    chan snapshot
	steps int
}

func (o *liveObserver) OnStep(y chem.State, t, dt float64) {
	o.steps++
	snap := snapshot{t: t, dt: dt, y: y.Clone(), steps: o.steps}
	select {
	case o.ch <- snap:
	default: // drop frames the UI has not consumed yet
	}
}

type model struct {
	netModel *networks.Model
	cfg      *config.Config

	cancel context.CancelFunc
	snaps  chan snapshot
	done   chan doneMsg

	last     *snapshot
	history  []float64 // electron abundance per frame
	finished bool
	status   evolve.Status
	err      error
}

// Run evolves the given network while rendering progress in the
// terminal. It blocks until the run finishes or the user quits.
func Run(netModel *networks.Model, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	m := &model{
		netModel: netModel,
		cfg:      cfg,
		cancel:   cancel,
		snaps:    make(chan snapshot, 16),
		done:     make(chan doneMsg, 1),
	}

	go func() {
		numDen := netModel.Initial.Clone()
		ev := evolve.New(netModel.Net, netModel.Rates, numDen, netModel.AbnDen,
			evolve.WithLogger(logging.Noop()),
			evolve.WithObserver(&liveObserver{ch: m.snaps}),
			evolve.WithWallBudget(time.Duration(cfg.WallSec)*time.Second),
		)
		dtTry := cfg.InitStepYr * chem.OneYear
		status, err := ev.Evolve(ctx, cfg.DurationYr*chem.OneYear, &dtTry, cfg.Tolerance)
		m.done <- doneMsg{status: status, err: err}
	}()

	p := tea.NewProgram(m)
	_, err := p.Run()
	cancel()
	return err
}

func (m *model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		}

	case tickMsg:
		for {
			select {
			case snap := <-m.snaps:
				m.last = &snap
				m.history = append(m.history,
					snap.y[chem.ElectronIndex]*m.netModel.AbnDen)
				if len(m.history) > 500 {
					m.history = m.history[1:]
				}
			case d := <-m.done:
				m.finished = true
				m.status = d.status
				m.err = d.err
				return m, tick()
			default:
				return m, tick()
			}
		}
	}
	return m, nil
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("chemevol live: "+m.netModel.Name) + "\n")
	b.WriteString(labelStyle.Render(m.netModel.Description) + "\n\n")

	if m.last == nil {
		b.WriteString(labelStyle.Render("waiting for first step...") + "\n")
	} else {
		b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n\n",
			labelStyle.Render("t:"),
			valueStyle.Render(fmt.Sprintf("%.4e yr", m.last.t/chem.OneYear)),
			labelStyle.Render("dt:"),
			valueStyle.Render(fmt.Sprintf("%.4e yr", m.last.dt/chem.OneYear)),
			labelStyle.Render("steps:"),
			valueStyle.Render(fmt.Sprintf("%d", m.last.steps)),
		))

		names := m.netModel.SpeciesNames()
		for i, v := range m.last.y {
			abn := v * m.netModel.AbnDen
			b.WriteString(fmt.Sprintf("  %s %s\n",
				labelStyle.Render(fmt.Sprintf("%-6s", names[i])),
				valueStyle.Render(fmt.Sprintf("%.6e", abn))))
		}
		b.WriteString("\n")
	}

	if len(m.history) >= 2 {
		logged := make([]float64, len(m.history))
		for i, v := range m.history {
			logged[i] = math.Log10(v + 1e-30)
		}
		graph := asciigraph.Plot(logged,
			asciigraph.Height(8),
			asciigraph.Width(64),
			asciigraph.Caption("log10 electron abundance"),
		)
		b.WriteString(graphStyle.Render(graph) + "\n\n")
	}

	if m.finished {
		switch {
		case m.err != nil:
			b.WriteString(failStyle.Render(fmt.Sprintf("failed: %v", m.err)) + "\n")
		case m.status == evolve.StatusOK:
			b.WriteString(okStyle.Render("completed") + "\n")
		default:
			b.WriteString(failStyle.Render(fmt.Sprintf("stopped early (status %d)", m.status)) + "\n")
		}
	}

	b.WriteString(helpStyle.Render("q to quit"))
	return b.String()
}
