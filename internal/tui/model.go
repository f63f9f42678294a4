// Package tui renders a running party in the terminal.
package tui

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/cakemic/internal/bouquet"
	"github.com/rbright/cakemic/internal/party"
)

const (
	defaultWidth  = 80
	confettiFrame = 120 * time.Millisecond

	prompt = "Make a wish and blow out the candles! 🕯️"
	quote  = "\"May your year be as beautiful as your smile.\""
)

var flowerIcons = map[string]string{
	"rose":           "🌹",
	"sunflower":      "🌻",
	"tulip":          "🌷",
	"daisy":          "🌼",
	"lily":           "💮",
	"cherry blossom": "🌸",
}

// Party is the controller surface the view drives.
type Party interface {
	Snapshot() party.Snapshot
	Extinguish(i int) (bool, error)
	Blow() bool
	Relight()
	SetTotal(n int) error
	SetMic(on bool)
	Dismiss()
	AddFlower() (bouquet.Flower, bool)
	ResetBouquet()
}

type changedMsg struct{}

type confettiTickMsg struct{}

// Model is the bubbletea model for one party.
type Model struct {
	party   Party
	updates <-chan struct{}

	width    int
	height   int
	snap     party.Snapshot
	geometry cakeGeometry
	status   string

	keys     keyMap
	help     help.Model
	progress progress.Model
	styles   Styles

	rng      *rand.Rand
	confetti confetti
	ticking  bool
}

// New builds a model. updates is the party's change feed and may be nil.
func New(p Party, updates <-chan struct{}) Model {
	m := Model{
		party:    p,
		updates:  updates,
		width:    defaultWidth,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithGradient(string(rose), string(amber)), progress.WithoutPercentage()),
		styles:   DefaultStyles(),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
	m.progress.Width = defaultWidth / 2
	m.refresh()
	return m
}

// Init starts listening for party changes.
func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Update handles terminal input and party notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, msg.Width/2)
		m.help.Width = msg.Width
		return m, nil
	case changedMsg:
		m.refresh()
		cmd := tea.Batch(m.waitForChange(), m.maybeTick())
		return m, cmd
	case confettiTickMsg:
		if !m.snap.Celebrating {
			m.ticking = false
			return m, nil
		}
		m.confetti.step()
		return m, tea.Tick(confettiFrame, func(time.Time) tea.Msg { return confettiTickMsg{} })
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.snap.Celebrating && key.Matches(msg, m.keys.Dismiss):
		m.party.Dismiss()
	case key.Matches(msg, m.keys.Candle):
		i, _ := candleForKey(msg.String())
		m.extinguish(i)
	case key.Matches(msg, m.keys.Blow):
		if !m.party.Blow() {
			m.status = "No candles left to blow out."
		}
	case key.Matches(msg, m.keys.Relight):
		m.party.Relight()
		m.status = ""
	case key.Matches(msg, m.keys.Mic):
		m.party.SetMic(!m.snap.Mic)
	case key.Matches(msg, m.keys.Flower):
		if _, ok := m.party.AddFlower(); !ok {
			m.status = "Your bouquet is complete. Press F to start over."
		}
	case key.Matches(msg, m.keys.Reset):
		m.party.ResetBouquet()
	case key.Matches(msg, m.keys.More):
		m.setTotal(m.snap.Total + 1)
	case key.Matches(msg, m.keys.Fewer):
		m.setTotal(m.snap.Total - 1)
	default:
		return m, nil
	}
	m.refresh()
	cmd := m.maybeTick()
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if m.snap.Celebrating {
		m.party.Dismiss()
		m.refresh()
		return m, nil
	}
	i, ok := m.geometry.hit(m.width, msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	m.extinguish(i)
	m.refresh()
	cmd := m.maybeTick()
	return m, cmd
}

func (m *Model) extinguish(i int) {
	if i >= m.snap.Total {
		m.status = fmt.Sprintf("There is no candle %d.", i+1)
		return
	}
	if _, err := m.party.Extinguish(i); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) setTotal(n int) {
	if err := m.party.SetTotal(n); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) refresh() {
	snap := m.party.Snapshot()
	if snap.Total != m.snap.Total {
		m.geometry = layoutCake(snap.Total)
	}
	if snap.Celebrating && !m.snap.Celebrating {
		m.confetti = newConfetti(m.rng)
	}
	m.snap = snap
}

func (m *Model) maybeTick() tea.Cmd {
	if !m.snap.Celebrating || m.ticking {
		return nil
	}
	m.ticking = true
	return tea.Tick(confettiFrame, func(time.Time) tea.Msg { return confettiTickMsg{} })
}

// View renders the party.
func (m Model) View() string {
	if m.snap.Celebrating {
		return m.viewCelebration()
	}

	subtitle := prompt
	if m.snap.Complete {
		subtitle = m.snap.Message
	}
	lines := []string{
		m.center(m.styles.Title.Render("Happy Birthday!")),
		m.center(m.styles.Subtitle.Render(subtitle)),
		"",
	}
	lines = append(lines, m.renderCake()...)
	lines = append(lines,
		"",
		m.center(m.styles.Progress.Render(fmt.Sprintf("%d of %d wishes made ✨", m.snap.Extinguished, m.snap.Total))),
		m.center(m.progress.ViewAs(m.ratio())),
		"",
		m.center(m.micLine()),
	)
	if m.status != "" {
		lines = append(lines, m.center(m.styles.Muted.Render(m.status)))
	}
	lines = append(lines, "")
	lines = append(lines, m.renderBouquet()...)
	lines = append(lines, "", m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m Model) ratio() float64 {
	if m.snap.Total == 0 {
		return 0
	}
	return float64(m.snap.Extinguished) / float64(m.snap.Total)
}

func (m Model) micLine() string {
	switch {
	case m.snap.MicErr != "":
		return m.styles.MicError.Render("🎤 mic error: " + m.snap.MicErr)
	case m.snap.Listening:
		return m.styles.Mic.Render("🎤 listening... blow to make a wish")
	case m.snap.Mic && m.snap.Complete:
		return m.styles.Muted.Render("🎤 mic on (all candles out)")
	case m.snap.Mic:
		return m.styles.Muted.Render("🎤 mic starting...")
	default:
		return m.styles.Muted.Render("🎤 mic off (press m)")
	}
}

func (m Model) renderBouquet() []string {
	title := fmt.Sprintf("Your Messages 💌 (%d/%d)", len(m.snap.Flowers), len(bouquet.Flowers))
	lines := []string{m.center(m.styles.Title.Render(title))}
	if len(m.snap.Flowers) == 0 {
		return append(lines, m.center(m.styles.Muted.Render("Press f to start collecting beautiful messages!")))
	}
	for _, f := range m.snap.Flowers {
		lines = append(lines, m.center(m.styles.Flower.Render(flowerIcons[f.Kind]+" "+f.Message)))
	}
	return lines
}

func (m Model) viewCelebration() string {
	box := m.styles.Overlay.Render(lipgloss.JoinVertical(lipgloss.Center,
		"🎉",
		"",
		m.styles.Title.Render(m.snap.Message),
		"",
		m.styles.Quote.Render(quote),
		"",
		"🎂 🎈 🎁",
		"",
		m.styles.Muted.Render("[enter] Continue to Bouquet 🌸"),
	))

	half := confettiRows / 2
	lines := m.confetti.band(m.width, 0, half)
	for _, line := range strings.Split(box, "\n") {
		lines = append(lines, m.center(line))
	}
	lines = append(lines, m.confetti.band(m.width, half, confettiRows)...)
	return strings.Join(lines, "\n")
}

func (m Model) center(s string) string {
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s)
}
