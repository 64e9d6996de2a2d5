package chat

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nebulachat/nebula/internal/channel"
)

// handleLocalTyping runs after every input edit. The leading edge announces
// typing=true once; each further keystroke pushes the trailing edge out, and
// the debounce tick announces typing=false after one quiet second.
func (m *Model) handleLocalTyping() tea.Cmd {
	value := m.input.Value()
	if value == m.lastInput {
		return nil
	}
	m.lastInput = value

	room := m.session.Room()
	if room == nil || m.connState != channel.StateConnected {
		return nil
	}

	if m.typingDebounce.Touch(time.Now()) {
		if err := m.ch.Typing(room.ID, true); err != nil && !errors.Is(err, channel.ErrNotConnected) {
			m.log.Warn().Err(err).Msg("typing start failed")
		}
	}
	return debounceTickCmd("typing", m.typingDebounce.Interval())
}
