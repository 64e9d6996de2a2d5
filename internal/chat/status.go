package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/nebulachat/nebula/internal/channel"
	"github.com/nebulachat/nebula/internal/types"
)

// toast shows a transient dismissable message on the status line.
func (m *Model) toast(text string) tea.Cmd {
	m.status = text
	m.statusSeq++
	return statusExpireCmd(m.statusSeq)
}

func (m *Model) toastError(text string, err error) tea.Cmd {
	m.log.Warn().Err(err).Msg(text)
	return m.toast(text)
}

// addSystemLine appends a transient centered notice to the transcript and
// schedules its removal.
func (m *Model) addSystemLine(text string) tea.Cmd {
	localID := uuid.NewString()
	m.session.AppendLocal(types.Message{
		System:  true,
		Text:    text,
		LocalID: localID,
	})
	m.refreshViewport(true)
	return systemExpireCmd(localID)
}

// connIndicator is the always-visible connection state marker.
func (m *Model) connIndicator() string {
	switch m.connState {
	case channel.StateConnected:
		return lipgloss.NewStyle().Foreground(m.theme.online).Render("🟢 " + m.catalog.T("connected"))
	case channel.StateConnecting:
		return lipgloss.NewStyle().Foreground(m.theme.reaction).Render("🟡 " + m.catalog.T("connecting"))
	default:
		text := "🔴 " + m.catalog.T("disconnected")
		if last := m.ch.LastConnectedAt(); !last.IsZero() {
			text += " · " + humanize.Time(last)
		}
		if m.connFinal {
			text += " · F5"
		}
		return lipgloss.NewStyle().Foreground(m.theme.errorFg).Render(text)
	}
}

func (m *Model) statusLine() string {
	left := m.connIndicator()
	if m.status != "" {
		left += "  " + lipgloss.NewStyle().Foreground(m.theme.errorFg).Render("⚠ "+m.status)
	}
	right := ""
	if user, ok := m.session.RemoteTyping(); ok {
		right = lipgloss.NewStyle().Foreground(m.theme.meta).Italic(true).
			Render(user + " " + m.catalog.T("is_typing"))
	}
	return alignStatusLine(left, right, m.mainWidth())
}

// counterLine shows the character budget, warning near the limit.
func (m *Model) counterLine() string {
	length := len([]rune(m.input.Value()))
	style := lipgloss.NewStyle().Foreground(m.theme.meta)
	if length > 450 {
		style = lipgloss.NewStyle().Foreground(m.theme.errorFg)
	}
	return alignStatusLine("", style.Render(fmt.Sprintf("%d/500", length)), m.mainWidth())
}

func alignStatusLine(left, right string, width int) string {
	if width <= 0 || right == "" {
		return left
	}
	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)
	gap := width - leftWidth - rightWidth
	if gap < 1 {
		return left
	}
	return left + spaces(gap) + right
}

func spaces(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	return string(buf)
}
