// Package tui is the interactive terminal table for playing rounds by hand.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/statistics"
)

const maxLogLines = 8

// Model is the Bubble Tea model for a single-player table.
type Model struct {
	env     *game.Env
	logger  *log.Logger
	advisor game.Policy

	keys keyMap
	help help.Model

	state   game.State
	round   statistics.RoundResult
	session statistics.Tally
	history []string
	err     error

	quitting bool
	width    int
}

// Option configures a Model.
type Option func(*Model)

// WithAdvisor shows the action advisor would take in the current state.
func WithAdvisor(p game.Policy) Option {
	return func(m *Model) { m.advisor = p }
}

// NewModel deals the first round from env.
func NewModel(env *game.Env, logger *log.Logger, opts ...Option) (*Model, error) {
	m := &Model{
		env:    env,
		logger: logger.WithPrefix("tui"),
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.deal(); err != nil {
		return nil, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Hit):
			m.act(game.Hit)
		case key.Matches(msg, m.keys.Stand):
			m.act(game.Stand)
		case key.Matches(msg, m.keys.Next):
			if err := m.deal(); err != nil {
				m.err = err
			}
		}
	}
	return m, nil
}

func (m *Model) deal() error {
	state, err := m.env.Reset()
	if err != nil {
		return err
	}
	m.state = state
	m.err = nil
	m.round = statistics.RoundResult{
		DealerUp:  state.DealerUp,
		Blackjack: m.env.PlayerHand().IsBlackjack(),
	}
	m.refreshKeys()
	m.logger.Debug("Round dealt", "state", state)
	return nil
}

func (m *Model) act(a game.Action) {
	res, err := m.env.Step(a)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.state = res.State
	if a == game.Hit {
		m.round.Hits++
	}
	if res.Done {
		m.round.Reward = res.Reward
		m.round.PlayerTotal = res.State.PlayerTotal
		m.round.DealerTotal = res.State.DealerTotal
		m.session.Add(m.round)
		m.record(res.Reward)
	}
	m.refreshKeys()
}

func (m *Model) record(r game.Reward) {
	line := fmt.Sprintf("#%d %s  you %s  dealer %s",
		m.session.Rounds, r, m.env.PlayerHand(), m.env.DealerHand())
	m.history = append(m.history, line)
	if len(m.history) > maxLogLines {
		m.history = m.history[len(m.history)-maxLogLines:]
	}
	m.logger.Info("Round finished", "reward", r, "rounds", m.session.Rounds)
}

func (m *Model) refreshKeys() {
	playing := m.env.Phase() == game.PhaseAwaitingAction
	m.keys.Hit.SetEnabled(playing)
	m.keys.Stand.SetEnabled(playing)
	m.keys.Next.SetEnabled(!playing)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Blackjack"))
	b.WriteString("\n\n")

	table := strings.Join([]string{
		m.renderDealer(),
		m.renderPlayer(),
		m.renderStatus(),
	}, "\n\n")
	b.WriteString(TableStyle.Render(table))
	b.WriteString("\n")

	b.WriteString(InfoStyle.Render(m.renderSession()))
	b.WriteString("\n")
	for _, line := range m.history {
		b.WriteString(InfoStyle.Render(line))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(LoseStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderDealer() string {
	dealer := m.env.DealerHand()
	cards := formatCards(dealer.Cards())
	if !m.env.HoleRevealed() {
		cards += " " + HiddenCardStyle.Render("??")
		return fmt.Sprintf("Dealer: %s  (showing %d)", cards, m.state.DealerUp)
	}
	return fmt.Sprintf("Dealer: %s  = %s", cards, totalLabel(dealer))
}

func (m *Model) renderPlayer() string {
	player := m.env.PlayerHand()
	return HandStyle.Render("You:    ") + formatCards(player.Cards()) + "  = " + totalLabel(player)
}

func (m *Model) renderStatus() string {
	if m.env.Phase() == game.PhaseAwaitingAction {
		status := "Your move."
		if m.advisor != nil {
			status += InfoStyle.Render(fmt.Sprintf("  advisor: %s", m.advisor.Decide(m.state)))
		}
		return status
	}
	switch m.env.LastReward() {
	case game.Win:
		return WinStyle.Render("You win!")
	case game.Lose:
		return LoseStyle.Render("Dealer wins.")
	default:
		return DrawStyle.Render("Push.")
	}
}

func (m *Model) renderSession() string {
	s := fmt.Sprintf("Session W/D/L %d/%d/%d", m.session.Wins, m.session.Draws, m.session.Losses)
	if m.session.Rounds > 0 {
		s += fmt.Sprintf("  win %.1f%%", 100*m.session.WinRate())
	}
	if m.env.Config().Counting {
		s += fmt.Sprintf("  count %+d", m.env.RunningCount())
	}
	return s
}

// Session returns the tally of rounds finished so far.
func (m *Model) Session() statistics.Tally { return m.session }

// State returns the last state shown to the player.
func (m *Model) State() game.State { return m.state }

func totalLabel(h *game.Hand) string {
	label := fmt.Sprintf("%d", h.Value())
	switch {
	case h.IsBust():
		label += " bust"
	case h.IsBlackjack():
		label += " blackjack"
	case h.IsSoft():
		label += " soft"
	}
	return label
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := BlackCardStyle
		if c.Suit.IsRed() {
			style = RedCardStyle
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, " ")
}

// Run plays interactively until the user quits and returns the session tally.
func Run(env *game.Env, logger *log.Logger, opts ...Option) (statistics.Tally, error) {
	m, err := NewModel(env, logger, opts...)
	if err != nil {
		return statistics.Tally{}, err
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return m.Session(), fmt.Errorf("run tui: %w", err)
	}
	return m.Session(), nil
}
