package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gasless-nft/relay/session"
)

// Wallet is the session the UI drives, normally a *session.Session
type Wallet interface {
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Transfer(ctx context.Context, destination string, tokenID string) (string, error)
	ExplorerURL() string
	State() session.State
}

type focus int

const (
	focusDestination focus = iota
	focusTokens
)

type (
	loginMsg    struct{ err error }
	logoutMsg   struct{ err error }
	refreshMsg  struct{ err error }
	transferMsg struct {
		hash string
		err  error
	}
)

// Model is the bubbletea model of the wallet screen
type Model struct {
	ctx    context.Context
	wallet Wallet
	styles Styles

	destination textinput.Model
	spinner     spinner.Model
	focus       focus
	selected    int

	busy string
	err  error
}

// New creates the wallet screen model
func New(ctx context.Context, wallet Wallet) Model {
	ti := textinput.New()
	ti.Placeholder = "0x... destination address"
	ti.CharLimit = 42
	ti.Width = 44
	ti.Cursor.SetMode(cursor.CursorStatic)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		wallet:      wallet,
		styles:      DefaultStyles(),
		destination: ti,
		spinner:     sp,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case loginMsg:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil {
			m.selected = 0
			m.focus = focusDestination
			return m, m.destination.Focus()
		}
		return m, nil

	case logoutMsg:
		m.busy = ""
		m.err = msg.err
		m.destination.Reset()
		m.destination.Blur()
		return m, nil

	case refreshMsg:
		m.busy = ""
		m.err = msg.err
		m.clampSelection()
		return m, nil

	case transferMsg:
		m.busy = ""
		m.err = msg.err
		if msg.err == nil {
			m.destination.Reset()
		}
		m.clampSelection()
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	}

	if m.busy != "" {
		return m, nil
	}

	state := m.wallet.State()
	if !state.LoggedIn {
		if msg.String() == "enter" {
			return m.start("Logging in...", func() tea.Msg {
				return loginMsg{err: m.wallet.Login(m.ctx)}
			})
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+l":
		return m.start("Logging out...", func() tea.Msg {
			return logoutMsg{err: m.wallet.Logout(m.ctx)}
		})
	case "ctrl+r":
		return m.start("Refreshing...", func() tea.Msg {
			return refreshMsg{err: m.wallet.Refresh(m.ctx)}
		})
	case "tab", "shift+tab":
		if m.focus == focusDestination {
			m.focus = focusTokens
			m.destination.Blur()
			return m, nil
		}
		m.focus = focusDestination
		return m, m.destination.Focus()
	case "enter":
		return m.submit(state)
	}

	if m.focus == focusTokens {
		switch msg.String() {
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(state.NFTs)-1 {
				m.selected++
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.destination, cmd = m.destination.Update(msg)
	return m, cmd
}

func (m Model) submit(state session.State) (tea.Model, tea.Cmd) {
	tokenID := ""
	if m.selected < len(state.NFTs) {
		tokenID = state.NFTs[m.selected].TokenID
	}
	destination := m.destination.Value()

	return m.start("processing...", func() tea.Msg {
		hash, err := m.wallet.Transfer(m.ctx, destination, tokenID)
		return transferMsg{hash: hash, err: err}
	})
}

func (m Model) start(label string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = label
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, cmd)
}

func (m *Model) clampSelection() {
	n := len(m.wallet.State().NFTs)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) View() string {
	var sb strings.Builder
	state := m.wallet.State()

	sb.WriteString(m.styles.Header.Render("Gasless NFT Transfer"))
	sb.WriteString("\n\n")

	if !state.LoggedIn {
		if m.busy != "" {
			sb.WriteString(m.spinner.View() + " " + m.busy + "\n")
		} else {
			sb.WriteString("Press enter to log in.\n")
		}
		m.writeError(&sb)
		sb.WriteString(m.styles.Footer.Render("enter: login • esc: quit"))
		return sb.String()
	}

	sb.WriteString(m.styles.Title.Render("Wallet"))
	sb.WriteString("\n" + state.Address + "\n\n")

	sb.WriteString(m.styles.Title.Render("Your NFTs"))
	sb.WriteString("\n")
	if len(state.NFTs) == 0 {
		sb.WriteString(m.styles.Muted.Render("No NFTs found."))
		sb.WriteString("\n")
	}
	for i, n := range state.NFTs {
		marker := "  "
		line := fmt.Sprintf("%s (#%s)", displayName(n.Name), n.TokenID)
		if i == m.selected {
			marker = "> "
			line = m.styles.Selected.Render(line)
		}
		sb.WriteString(marker + line + "\n")
		if n.Description != "" {
			sb.WriteString("    " + m.styles.Muted.Render(n.Description) + "\n")
		}
		if n.ImageURL != "" {
			sb.WriteString("    " + m.styles.Link.Render(n.ImageURL) + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Title.Render("Transfer"))
	sb.WriteString("\n")
	sb.WriteString("To: " + m.destination.View() + "\n")

	if m.busy != "" {
		sb.WriteString(m.spinner.View() + " " + m.busy + "\n")
	} else if state.TxHash != "" {
		sb.WriteString(m.styles.Success.Render("Transaction: "+state.TxHash) + "\n")
		if url := m.wallet.ExplorerURL(); url != "" {
			sb.WriteString(m.styles.Link.Render(url) + "\n")
		}
	}
	m.writeError(&sb)

	sb.WriteString(m.styles.Footer.Render("tab: switch field • ↑/↓: select token • enter: send • ctrl+r: refresh • ctrl+l: logout • esc: quit"))
	return sb.String()
}

func (m Model) writeError(sb *strings.Builder) {
	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(m.err.Error()))
		sb.WriteString("\n")
	}
}

func displayName(name string) string {
	if name == "" {
		return "Untitled"
	}
	return name
}

// Run starts the wallet screen and blocks until the user quits
func Run(ctx context.Context, wallet Wallet) error {
	_, err := tea.NewProgram(New(ctx, wallet), tea.WithContext(ctx)).Run()
	return err
}
