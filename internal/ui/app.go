package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/connect"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

const (
	maxToasts   = 3
	feedVisible = 12
)

// AccountSwitcher is the wallet side of the widget. Switching happens in
// the wallet; the session learns about it from provider events.
type AccountSwitcher interface {
	SelectAccount(name string) error
	SwitchNetwork(chainID int64)
}

// AppOptions configures the widget.
type AppOptions struct {
	Network  chain.Network
	Contract common.Address
	Networks []chain.Network // targets for network switching
	Accounts []string        // signing wallet names
	Amount   string          // initial amount
	Switcher AccountSwitcher // nil disables switching
}

// ToastMsg delivers a notification to the widget.
type ToastMsg connect.Notification

// ReloadMsg makes the widget exit so the caller can rebuild it for another
// network.
type ReloadMsg struct{ ChainID int64 }

type sessionDoneMsg struct {
	op  string
	err error
}

type buyDoneMsg struct{ err error }

type appTickMsg struct{}

type focus int

const (
	focusNone focus = iota
	focusAmount
	focusMessage
)

// AppModel is the Bubble Tea model for the donation widget.
type AppModel struct {
	ctx     context.Context
	session *connect.Session
	opts    AppOptions

	state   connect.ConnectionState
	feed    []contract.Contribution
	loading bool
	toasts  []connect.Notification

	amount  string
	message string
	focus   focus
	buying  bool

	accountIdx int
	frame      int
	reload     int64
	flash      string
	Quitting   bool
}

// NewAppModel creates the widget over a session.
func NewAppModel(ctx context.Context, session *connect.Session, opts AppOptions) AppModel {
	amount := opts.Amount
	if amount == "" {
		amount = "0.001"
	}
	return AppModel{
		ctx:     ctx,
		session: session,
		opts:    opts,
		amount:  amount,
		loading: true,
	}
}

// ReloadChainID is the chain the wallet switched to, or 0.
func (m AppModel) ReloadChainID() int64 { return m.reload }

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.restoreCmd(), m.loadCmd(), appTick())
}

func appTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg { return appTickMsg{} })
}

// --- commands ---

func (m AppModel) restoreCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Restore(m.ctx)
		return sessionDoneMsg{op: "restore"}
	}
}

func (m AppModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return sessionDoneMsg{op: "load", err: m.session.LoadContributions(m.ctx)}
	}
}

func (m AppModel) connectCmd() tea.Cmd {
	return func() tea.Msg {
		return sessionDoneMsg{op: "connect", err: m.session.Connect(m.ctx)}
	}
}

func (m AppModel) disconnectCmd() tea.Cmd {
	return func() tea.Msg {
		m.session.Disconnect()
		return sessionDoneMsg{op: "disconnect"}
	}
}

func (m AppModel) buyCmd(message, amount string) tea.Cmd {
	return func() tea.Msg {
		return buyDoneMsg{err: m.session.BuyCoffee(m.ctx, message, amount)}
	}
}

func (m AppModel) switchAccountCmd(name string) tea.Cmd {
	return func() tea.Msg {
		return sessionDoneMsg{op: "switch", err: m.opts.Switcher.SelectAccount(name)}
	}
}

func (m AppModel) switchNetworkCmd(chainID int64) tea.Cmd {
	return func() tea.Msg {
		m.opts.Switcher.SwitchNetwork(chainID)
		return sessionDoneMsg{op: "network"}
	}
}

// --- update ---

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus != focusNone {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)

	case appTickMsg:
		m.frame = (m.frame + 1) % len(spinFrames)
		return m, appTick()

	case ToastMsg:
		m.pushToast(connect.Notification(msg))
		m.sync()

	case sessionDoneMsg:
		if msg.err != nil && msg.op == "switch" {
			m.pushToast(connect.Notification{Kind: connect.Error, Message: msg.err.Error()})
		}
		m.sync()

	case buyDoneMsg:
		m.buying = false
		if msg.err == nil {
			m.message = ""
		}
		m.sync()

	case ReloadMsg:
		m.reload = msg.ChainID
		m.Quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m AppModel) updateKeys(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Quitting = true
		return m, tea.Quit

	case "c":
		if m.state.IsConnected || m.state.IsConnecting {
			return m, nil
		}
		m.state.IsConnecting = true
		return m, m.connectCmd()

	case "d":
		if !m.state.IsConnected {
			return m, nil
		}
		return m, m.disconnectCmd()

	case "a":
		if m.opts.Switcher == nil || len(m.opts.Accounts) < 2 {
			m.flash = "No other account to switch to"
			return m, nil
		}
		m.accountIdx = (m.accountIdx + 1) % len(m.opts.Accounts)
		return m, m.switchAccountCmd(m.opts.Accounts[m.accountIdx])

	case "n":
		next, ok := m.nextNetwork()
		if !ok {
			m.flash = "No other network to switch to"
			return m, nil
		}
		return m, m.switchNetworkCmd(next.ChainID)

	case "r":
		m.loading = true
		return m, m.loadCmd()

	case "o":
		if url := m.contractURL(); url != "" {
			if err := openURL(url); err == nil {
				m.flash = "Opening in browser…"
			} else {
				m.flash = "Could not open browser"
			}
		}

	case "b", "enter", "tab":
		if m.buying {
			return m, nil
		}
		m.focus = focusAmount
	}
	return m, nil
}

func (m AppModel) updateForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.focus = focusNone
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		if m.focus == focusAmount {
			m.focus = focusMessage
		} else {
			m.focus = focusAmount
		}
	case tea.KeyEnter:
		if m.focus == focusAmount {
			m.focus = focusMessage
			return m, nil
		}
		m.focus = focusNone
		m.buying = true
		return m, m.buyCmd(m.message, m.amount)
	case tea.KeyBackspace:
		m.editField(func(s string) string {
			r := []rune(s)
			if len(r) == 0 {
				return s
			}
			return string(r[:len(r)-1])
		})
	case tea.KeySpace:
		if m.focus == focusMessage {
			m.message += " "
		}
	case tea.KeyRunes:
		text := string(key.Runes)
		if m.focus == focusAmount && strings.Trim(text, "0123456789.") != "" {
			return m, nil
		}
		m.editField(func(s string) string { return s + text })
	}
	return m, nil
}

func (m *AppModel) editField(fn func(string) string) {
	switch m.focus {
	case focusAmount:
		m.amount = fn(m.amount)
	case focusMessage:
		m.message = fn(m.message)
	}
}

func (m *AppModel) pushToast(n connect.Notification) {
	if n.ID != "" {
		for i := range m.toasts {
			if m.toasts[i].ID == n.ID {
				m.toasts[i] = n
				return
			}
		}
	}
	m.toasts = append(m.toasts, n)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

func (m *AppModel) sync() {
	m.state = m.session.State()
	m.feed = m.session.Contributions()
	m.loading = m.session.Loading()
}

func (m AppModel) nextNetwork() (chain.Network, bool) {
	if m.opts.Switcher == nil {
		return chain.Network{}, false
	}
	for i, n := range m.opts.Networks {
		if n.ChainID == m.opts.Network.ChainID {
			next := m.opts.Networks[(i+1)%len(m.opts.Networks)]
			return next, next.ChainID != n.ChainID
		}
	}
	if len(m.opts.Networks) > 0 {
		return m.opts.Networks[0], true
	}
	return chain.Network{}, false
}

// --- view ---

func (m AppModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	spin := spinFrames[m.frame]

	sb.WriteString(StyleCoffee.Render("☕ Buy Me a Coffee") + "  " + ChainName(m.opts.Network.DisplayName) + "\n\n")
	sb.WriteString(m.viewConnection(spin) + "\n\n")
	sb.WriteString(m.viewForm(spin) + "\n")

	for _, t := range m.toasts {
		if t.Kind == connect.Loading {
			sb.WriteString(StyleInfo.Render(spin+" "+t.Message) + "\n")
			continue
		}
		sb.WriteString(FormatNotification(t) + "\n")
	}
	sb.WriteString("\n")

	sb.WriteString(StyleHeader.Render(fmt.Sprintf("Recent coffees (%d)", len(m.feed))) + "\n")
	switch {
	case m.loading && len(m.feed) == 0:
		sb.WriteString(StyleInfo.Render(spin+" loading contributions…") + "\n")
	case len(m.feed) == 0:
		sb.WriteString(Meta("  No coffees yet. Be the first!") + "\n")
	default:
		shown := m.feed
		if len(shown) > feedVisible {
			shown = shown[:feedVisible]
		}
		sb.WriteString(FeedTable(shown, m.opts.Network.NativeCurrency).Render())
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  " + m.flash))
	} else {
		sb.WriteString(m.controls())
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m AppModel) viewConnection(spin string) string {
	switch m.state.State() {
	case connect.Connecting:
		return StyleWarning.Render(spin + " Connecting…")
	case connect.Connected:
		return StyleSuccess.Render("● Connected ") + Addr(TruncateAddr(m.state.Account.Hex()))
	default:
		return StyleMeta.Render("○ Not connected. Press c to connect your wallet")
	}
}

func (m AppModel) viewForm(spin string) string {
	field := func(label, value string, f focus) string {
		cursor := " "
		style := StyleValue
		if m.focus == f {
			cursor = "▏"
			style = StyleSelected
		}
		return StyleMeta.Render(padR(label, 16)) + style.Render(value+cursor)
	}

	var sb strings.Builder
	sb.WriteString(field("Amount ("+m.opts.Network.NativeCurrency+")", m.amount, focusAmount) + "\n")
	sb.WriteString(field("Message", m.message, focusMessage) + "\n")
	switch {
	case m.buying:
		sb.WriteString(StyleInfo.Render(spin + " waiting for confirmation…"))
	case m.focus != focusNone:
		sb.WriteString(Meta("[ Tab ] next field   [ Enter ] buy coffee   [ Esc ] cancel"))
	default:
		sb.WriteString(Meta("[ b ] write a message and buy a coffee"))
	}
	return StyleBorder.Render(sb.String())
}

func (m AppModel) controls() string {
	sep := StyleMeta.Render("   ")
	parts := []string{
		StyleInfo.Render("[ c ]") + StyleMeta.Render(" connect"),
		StyleWarning.Render("[ d ]") + StyleMeta.Render(" disconnect"),
	}
	if m.opts.Switcher != nil {
		parts = append(parts,
			StyleMeta.Render("[ a ] switch account"),
			StyleMeta.Render("[ n ] switch network"),
		)
	}
	if m.contractURL() != "" {
		parts = append(parts, StyleMeta.Render("[ o ] view contract"))
	}
	parts = append(parts, StyleMeta.Render("[ r ] refresh"), StyleMeta.Render("[ q ] quit"))
	return strings.Join(parts, sep)
}

// contractURL is the contract's explorer page, or "" without an explorer.
func (m AppModel) contractURL() string {
	if m.opts.Contract == (common.Address{}) {
		return ""
	}
	return m.opts.Network.AddressURL(m.opts.Contract.Hex())
}
