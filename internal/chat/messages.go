package chat

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nebulachat/nebula/internal/types"
)

// mentionPattern marks @word tokens for distinct rendering. This is markup
// only; mentions are not resolved to users.
var mentionPattern = regexp.MustCompile(`@\w+`)

const replySnippetLen = 50

func (m *Model) renderMessages() string {
	messages := m.session.Messages()
	if len(messages) == 0 {
		hint := m.catalog.T("no_messages")
		if m.session.Room() == nil {
			hint = m.catalog.T("select_room")
		}
		return lipgloss.NewStyle().Foreground(m.theme.meta).Italic(true).Render(hint)
	}
	chunks := make([]string, 0, len(messages))
	for i := range messages {
		chunks = append(chunks, m.formatMessage(messages[i], i))
	}
	return strings.Join(chunks, "\n\n")
}

// formatMessage projects one message into its terminal block. The mapping is
// deterministic in the message, the presence set, the selection cursor, and
// the jump highlight.
func (m *Model) formatMessage(msg types.Message, idx int) string {
	if msg.System {
		return m.formatSystem(msg)
	}

	width := m.mainWidth()
	var parts []string

	// Author label only on received messages.
	if !msg.IsOwn && msg.User != "" {
		parts = append(parts, m.formatByline(msg))
	}
	if msg.ReplyTo != nil {
		parts = append(parts, m.formatReplyBlock(msg.ReplyTo))
	}

	body := m.styleMentions(msg.Text)
	if width > 0 {
		wrap := width - 2
		if wrap < 10 {
			wrap = 10
		}
		body = ansi.Wrap(body, wrap, "")
	}
	if msg.IsOwn {
		body = lipgloss.NewStyle().Background(m.theme.sentBg).Padding(0, 1).Render(body)
	}
	parts = append(parts, body)

	if strip := m.formatReactions(msg.Reactions); strip != "" {
		parts = append(parts, strip)
	}
	parts = append(parts, m.formatFooter(msg, idx == m.selected))

	block := strings.Join(parts, "\n")
	if idx == m.highlightIdx {
		block = lipgloss.NewStyle().Background(m.theme.highlight).Render(block)
	}
	if idx == m.selected {
		block = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(m.theme.accent).
			Render(block)
	}
	// Sent messages hug the right edge, received the left.
	if msg.IsOwn && width > 0 {
		block = lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}

func (m *Model) formatByline(msg types.Message) string {
	badge := lipgloss.NewStyle().Foreground(m.theme.offline).Render("○")
	if m.session.IsOnline(msg.User) {
		badge = lipgloss.NewStyle().Foreground(m.theme.online).Render("●")
	}
	avatar := msg.UserAvatar
	if avatar == "" {
		avatar = "👤"
	}
	name := lipgloss.NewStyle().Foreground(colorForUser(msg.User)).Bold(true).Render(msg.User)
	return fmt.Sprintf("%s %s %s", badge, avatar, name)
}

// formatReplyBlock renders the quoted preview. The snippet from the payload
// is shown even when the original message is not in loaded history.
func (m *Model) formatReplyBlock(ref *types.ReplyRef) string {
	snippet := ref.Text
	if len([]rune(snippet)) > replySnippetLen {
		snippet = string([]rune(snippet)[:replySnippetLen]) + "…"
	}
	quote := fmt.Sprintf("↩ %s: %s", ref.User, snippet)
	return lipgloss.NewStyle().
		Foreground(m.theme.meta).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(m.theme.meta).
		PaddingLeft(1).
		Render(quote)
}

// formatReactions renders one control per emoji with a non-zero reactor
// count. Reactor names follow dimmed, standing in for the hover tooltip.
func (m *Model) formatReactions(reactions map[string][]string) string {
	if len(reactions) == 0 {
		return ""
	}
	keys := make([]string, 0, len(reactions))
	for emoji := range reactions {
		if len(reactions[emoji]) == 0 {
			continue
		}
		keys = append(keys, emoji)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	pill := lipgloss.NewStyle().Foreground(m.theme.reaction)
	names := lipgloss.NewStyle().Foreground(m.theme.meta)
	parts := make([]string, 0, len(keys))
	for _, emoji := range keys {
		users := reactions[emoji]
		parts = append(parts,
			pill.Render(fmt.Sprintf("%s %d", emoji, len(users)))+
				names.Render(" ("+strings.Join(users, ", ")+")"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) formatFooter(msg types.Message, selected bool) string {
	meta := lipgloss.NewStyle().Foreground(m.theme.meta)
	footer := msg.Timestamp
	if selected {
		hints := fmt.Sprintf("↩ %s · ☺ %s", m.catalog.T("reply"), m.catalog.T("react"))
		if msg.ReplyTo != nil {
			hints += " · ⇱ " + m.catalog.T("jump")
		}
		if footer != "" {
			footer += "  " + hints
		} else {
			footer = hints
		}
	}
	return meta.Render(footer)
}

func (m *Model) formatSystem(msg types.Message) string {
	line := lipgloss.NewStyle().Foreground(m.theme.system).Italic(true).Render(msg.Text)
	if width := m.mainWidth(); width > 0 {
		line = lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
	}
	return line
}

func (m *Model) styleMentions(text string) string {
	style := lipgloss.NewStyle().Foreground(m.theme.mention).Bold(true)
	return mentionPattern.ReplaceAllStringFunc(text, func(token string) string {
		return style.Render(token)
	})
}

// messageLineOffset returns the first rendered line of the message at idx,
// used to scroll a reply-jump target into view.
func (m *Model) messageLineOffset(idx int) int {
	messages := m.session.Messages()
	offset := 0
	for i := 0; i < idx && i < len(messages); i++ {
		offset += lipgloss.Height(m.formatMessage(messages[i], i)) + 1
	}
	return offset
}
