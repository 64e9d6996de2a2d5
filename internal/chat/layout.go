package chat

const (
	sidebarWidth  = 24
	statusLines   = 1
	counterLines  = 1
	inputReserved = 3
)

func (m *Model) mainWidth() int {
	if m.width == 0 {
		return 0
	}
	width := m.width - sidebarWidth
	if width < 1 {
		width = 1
	}
	return width
}

// resize recomputes the viewport and input dimensions after a window size
// change or a layout-affecting state change.
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	mainWidth := m.mainWidth()
	m.input.SetWidth(mainWidth - 2)
	m.input.SetHeight(1)

	reserved := inputReserved + statusLines + counterLines
	if m.replyBarVisible() {
		reserved++
	}
	height := m.height - reserved
	if height < 1 {
		height = 1
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = height
	m.refreshViewport(false)
}

func (m *Model) replyBarVisible() bool {
	return m.session.DraftReply() != nil
}
