package chat

import (
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/nebulachat/nebula/internal/types"
)

// notifyIncoming raises an OS notification for messages that arrive while the
// terminal is unfocused. Best-effort: failures are logged, never surfaced.
func (m *Model) notifyIncoming(msg types.Message) {
	if msg.IsOwn || m.focused || !m.prefs.Notifications {
		return
	}
	if err := beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration); err != nil {
		m.log.Debug().Err(err).Msg("alert tone failed")
	}
	body := truncateNotification(msg.Text, 100)
	if err := beeep.Notify(msg.User, body, ""); err != nil {
		m.log.Debug().Err(err).Msg("notification failed")
	}
}

func truncateNotification(s string, maxLen int) string {
	// Collapse whitespace for notification
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
