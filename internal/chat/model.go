// Package chat is the terminal UI: a bubbletea program that projects the
// session state into a scrollback view and drives the channel and REST
// clients from user input.
package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nebulachat/nebula/internal/channel"
	"github.com/nebulachat/nebula/internal/config"
	"github.com/nebulachat/nebula/internal/rest"
	"github.com/nebulachat/nebula/internal/session"
	"github.com/nebulachat/nebula/internal/types"
)

// Options configure the chat UI.
type Options struct {
	ServerURL  string
	ChannelURL string
	Token      string
	PrefsPath  string
	Logger     zerolog.Logger
}

// Run starts the chat UI and blocks until exit.
func Run(opts Options) error {
	model, err := NewModel(opts)
	if err != nil {
		return err
	}
	fmt.Print("\033]0;nebula\007")

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	_, err = program.Run()
	model.Close()
	return err
}

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayInvite
	overlayNewChat
	overlayNewGroup
	overlayMembers
	overlayPicker
)

// reactionEmojis is the fixed picker set; digits 1-8 select one.
var reactionEmojis = []string{"👍", "❤️", "😂", "😮", "😢", "🔥", "👏", "🎉"}

// Model implements the chat UI.
type Model struct {
	log     zerolog.Logger
	ch      *channel.Client
	api     *rest.Client
	session *session.Session

	prefs        config.Preferences
	prefsPath    string
	prefsUpdates <-chan config.Preferences
	stopWatch    func()
	catalog      *config.Catalog
	theme        theme

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool

	connState channel.State
	connErr   error
	connFinal bool

	rooms        []types.Room
	roomIndex    int
	sidebarFocus bool

	selected     int
	highlightIdx int
	highlightSeq int

	status    string
	statusSeq int

	typingDebounce *session.Debouncer
	searchDebounce *session.Debouncer
	lastInput      string
	pendingQuery   string

	overlay       overlayKind
	overlayInput  textinput.Model
	searchResults []types.User
	resultIndex   int
	searchNote    string
	members       []types.Member
	pickerTarget  int64
}

// NewModel wires the clients and initial state together.
func NewModel(opts Options) (*Model, error) {
	api, err := rest.NewClient(opts.ServerURL, opts.Token)
	if err != nil {
		return nil, err
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = config.DefaultPath()
	}
	prefs, err := config.Load(prefsPath)
	if err != nil {
		return nil, err
	}

	ch := channel.New(channel.Options{
		URL:    opts.ChannelURL,
		Token:  opts.Token,
		Logger: opts.Logger,
	})

	input := textarea.New()
	input.Placeholder = "Message"
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.Prompt = "┃ "
	input.Focus()

	overlayInput := textinput.New()
	overlayInput.Prompt = "🔍 "

	model := &Model{
		log:            opts.Logger,
		ch:             ch,
		api:            api,
		session:        session.New(ch),
		prefs:          prefs,
		prefsPath:      prefsPath,
		catalog:        config.NewCatalog(prefs.Language, nil),
		theme:          themeFor(prefs.Theme),
		viewport:       viewport.New(0, 0),
		input:          input,
		overlayInput:   overlayInput,
		focused:        true,
		selected:       -1,
		highlightIdx:   -1,
		typingDebounce: session.NewDebouncer(typingQuiet),
		searchDebounce: session.NewDebouncer(searchQuiet),
	}

	updates, stop, err := config.Watch(prefsPath, opts.Logger)
	if err != nil {
		// Hot reload is a convenience; run without it.
		opts.Logger.Warn().Err(err).Msg("preferences watch unavailable")
	} else {
		model.prefsUpdates = updates
		model.stopWatch = stop
	}

	ch.Connect()
	return model, nil
}

// Init starts the background pumps: channel events, room directory,
// translations, preference updates.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForChannelEvent(),
		m.loadRoomsCmd(),
		m.loadTranslationsCmd(m.prefs.Language),
		textarea.Blink,
	}
	if m.prefsUpdates != nil {
		cmds = append(cmds, m.waitForPrefs())
	}
	return tea.Batch(cmds...)
}

// Close releases the channel and watchers.
func (m *Model) Close() {
	if m.stopWatch != nil {
		m.stopWatch()
	}
	m.ch.Close()
}
