// Package tui is the interactive terminal playground.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/composition"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/render"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

const (
	stageCols = 48
	stageRows = 16

	refreshEvery = 50 * time.Millisecond
)

type focus int

const (
	focusPalette focus = iota
	focusProgram
)

type tickMsg struct{}

type runDoneMsg struct {
	result engine.Result
}

// Model is the bubbletea model for one playground or puzzle session.
type Model struct {
	ctx     context.Context
	title   string
	catalog *blocks.Catalog
	surface *composition.Surface
	stage   *sprite.Stage
	runner  *engine.Runner
	session *engine.PuzzleSession
	claim   func(puzzleID string) bool

	locale  blocks.Locale
	focus   focus
	palette int
	program int
	status  string

	keys keyMap
	help help.Model
}

// NewPlayground builds a model over the free playground.
func NewPlayground(ctx context.Context, pg *engine.Playground, locale blocks.Locale) Model {
	return newModel(ctx, "Scratchy Playground", pg.Catalog, pg.Surface, pg.Stage, pg.Runner, nil, locale)
}

// NewPuzzle builds a model over a puzzle session. The program can still
// be played on its own stage before checking.
func NewPuzzle(ctx context.Context, sess *engine.PuzzleSession, locale blocks.Locale, opts ...engine.RunnerOption) Model {
	stage := sprite.NewStage()
	p := sess.Puzzle()
	return newModel(ctx, p.TitleFor(locale), p.Catalog, sess.Surface(), stage, engine.NewRunner(stage, opts...), sess, locale)
}

// WithClaimCheck reports solves whose reward was already claimed, as
// Tracker.CanClaim does.
func (m Model) WithClaimCheck(fn func(puzzleID string) bool) Model {
	m.claim = fn
	return m
}

func newModel(ctx context.Context, title string, c *blocks.Catalog, s *composition.Surface, st *sprite.Stage, r *engine.Runner, sess *engine.PuzzleSession, locale blocks.Locale) Model {
	return Model{
		ctx:     ctx,
		title:   title,
		catalog: c,
		surface: s,
		stage:   st,
		runner:  r,
		session: sess,
		locale:  locale,
		keys:    defaultKeys(sess != nil),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) runCmd() tea.Cmd {
	ids := m.surface.IDs()
	return func() tea.Msg {
		return runDoneMsg{result: m.runner.Run(m.ctx, ids)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.runner.Active() {
			return m, tick()
		}
		return m, nil

	case runDoneMsg:
		if msg.result.Status != engine.StatusToggledOff {
			m.status = fmt.Sprintf("%s after %d steps", msg.result.Status, msg.result.StepsApplied)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	order := render.PaletteOrder(m.catalog)

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.runner.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Switch):
		if m.focus == focusPalette {
			m.focus = focusProgram
		} else {
			m.focus = focusPalette
		}

	case key.Matches(msg, m.keys.Up):
		if m.focus == focusPalette && m.palette > 0 {
			m.palette--
		}
		if m.focus == focusProgram && m.program > 0 {
			m.program--
		}

	case key.Matches(msg, m.keys.Down):
		if m.focus == focusPalette && m.palette < len(order)-1 {
			m.palette++
		}
		if m.focus == focusProgram && m.program < m.surface.Len()-1 {
			m.program++
		}

	case key.Matches(msg, m.keys.Add):
		if m.focus != focusPalette || len(order) == 0 {
			break
		}
		// same path as a drag from the palette
		payload, err := blocks.EncodePayload(order[m.palette])
		if err != nil {
			m.status = err.Error()
			break
		}
		if _, ok := m.surface.Drop(payload); ok {
			m.program = m.surface.Len() - 1
			m.status = ""
		}

	case key.Matches(msg, m.keys.Remove):
		if m.focus == focusProgram && m.surface.RemoveAt(m.program) {
			if m.program >= m.surface.Len() && m.program > 0 {
				m.program--
			}
		}

	case key.Matches(msg, m.keys.Clear):
		m.runner.Stop()
		m.surface.Clear()
		m.stage.Reset()
		m.program = 0
		m.status = ""

	case key.Matches(msg, m.keys.Run):
		return m, tea.Batch(m.runCmd(), tick())

	case key.Matches(msg, m.keys.Check):
		p := m.session.Puzzle()
		eligible := m.claim == nil || m.claim(p.ID)
		switch {
		case !m.session.Check():
			m.status = "not yet"
		case eligible && m.session.Rewarded():
			m.status = fmt.Sprintf("solved! +%d coins", p.CoinsReward)
		default:
			m.status = "solved! coins already earned"
		}

	case key.Matches(msg, m.keys.Locale):
		if m.locale == blocks.Arabic {
			m.locale = blocks.English
		} else {
			m.locale = blocks.Arabic
		}
		if m.session != nil {
			m.title = m.session.Puzzle().TitleFor(m.locale)
		}
	}
	return m, nil
}

func (m Model) View() string {
	paletteSel, programSel := m.palette, -1
	if m.focus == focusProgram {
		paletteSel, programSel = -1, m.program
	}

	left := render.Palette(m.catalog, m.locale, paletteSel)
	middle := render.Program(m.surface.Instances(), m.locale, programSel)
	right := render.Stage(m.stage.Snapshot(), stageCols, stageRows)

	column := lipgloss.NewStyle().MarginRight(2)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		column.Render(left), column.Width(30).Render(middle), right)

	footer := render.HelpStyle.Render(m.status)
	if m.session != nil {
		correct, checked := m.session.Verdict()
		footer = render.Verdict(correct, checked) + "  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		render.TitleStyle.Render(m.title),
		body,
		footer,
		m.help.View(m.keys),
	)
}
