package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/coffee/internal/chain"
	"github.com/Mohsinsiddi/coffee/internal/contract"
	tea "github.com/charmbracelet/bubbletea"
)

const maxWatchRows = 200

// WatchEventsMsg carries CoffeeBought events found in one poll, oldest first.
type WatchEventsMsg struct {
	Events []contract.CoffeeBought
}

// WatchStatusMsg updates the polling status bar.
type WatchStatusMsg struct {
	BlockNum uint64
	Fetching bool
	ErrMsg   string
}

// WatchModel is the Bubble Tea model for the live purchase stream.
type WatchModel struct {
	Network  chain.Network
	Contract string
	Rows     []contract.CoffeeBought // newest first
	Status   WatchStatusMsg
	Frame    int
	Quitting bool
	cursor   int
	flash    string
}

type watchTickMsg struct{}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m WatchModel) Init() tea.Cmd { return watchSpinTick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.flash = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.Rows)-1 {
				m.cursor++
			}
		case "o":
			if m.cursor < len(m.Rows) {
				url := m.Network.TxURL(m.Rows[m.cursor].TxHash.Hex())
				switch {
				case url == "":
					m.flash = "No explorer for " + m.Network.DisplayName
				case openBrowser(url) != nil:
					m.flash = "Could not open browser"
				default:
					m.flash = "Opening in browser…"
				}
			}
		}

	case watchTickMsg:
		m.Frame = (m.Frame + 1) % len(spinFrames)
		return m, watchSpinTick()

	case WatchEventsMsg:
		for _, ev := range msg.Events {
			m.Rows = append([]contract.CoffeeBought{ev}, m.Rows...)
		}
		if len(m.Rows) > maxWatchRows {
			m.Rows = m.Rows[:maxWatchRows]
		}

	case WatchStatusMsg:
		m.Status = msg
	}
	return m, nil
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := spinFrames[m.Frame]

	title := fmt.Sprintf("☕ Live coffees  ·  %s  ·  %s", TruncateAddr(m.Contract), m.Network.DisplayName)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	switch {
	case m.Status.ErrMsg != "":
		sb.WriteString(StyleError.Render("✗ "+m.Status.ErrMsg) + "\n\n")
	case m.Status.Fetching:
		sb.WriteString(StyleInfo.Render(fmt.Sprintf("%s polling block #%d…", spin, m.Status.BlockNum)) + "\n\n")
	case m.Status.BlockNum > 0:
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  last checked: block #%d", m.Status.BlockNum)) + "\n\n")
	default:
		sb.WriteString(StyleMeta.Render("  connecting…") + "\n\n")
	}

	const (
		wWho   = 13
		wValue = 16
		wBlock = 10
	)
	sep := StyleMeta.Render(strings.Repeat("─", wWho+wValue+wBlock+46))
	sb.WriteString(
		padR(StyleDim.Render("SUPPORTER"), wWho) + "  " +
			padR(StyleDim.Render("AMOUNT"), wValue) + "  " +
			padR(StyleDim.Render("BLOCK"), wBlock) + "  " +
			StyleDim.Render("MESSAGE") + "\n",
	)
	sb.WriteString(sep + "\n")

	if len(m.Rows) == 0 {
		sb.WriteString(StyleMeta.Render("  Waiting for coffees…") + "\n")
	} else {
		for i, ev := range m.Rows {
			line := padR(Addr(TruncateAddr(ev.Supporter.Hex())), wWho) + "  " +
				padR(Val(chain.FormatEther(ev.Amount))+" "+StyleDim.Render(m.Network.NativeCurrency), wValue) + "  " +
				padR(Meta(fmt.Sprintf("#%d", ev.BlockNumber)), wBlock) + "  " +
				truncate(oneLine(ev.Message), 40)
			if i == m.cursor {
				line = StyleSelected.Render(line)
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString(sep + "\n")
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d coffee(s) seen", len(m.Rows))) + "\n")
	}

	sb.WriteString("\n")
	if m.flash != "" {
		sb.WriteString(StyleSuccess.Render("  ✓ " + m.flash))
	} else {
		sb.WriteString(StyleMeta.Render("[ ↑↓ ] navigate   ") +
			StyleInfo.Render("[ o ]") + StyleMeta.Render(" open tx   [ q ] quit"))
	}
	sb.WriteString("\n")
	return sb.String()
}
