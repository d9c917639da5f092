// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/bestfit-labs/coach-tui/internal/api"
	"github.com/bestfit-labs/coach-tui/internal/audio"
	"github.com/bestfit-labs/coach-tui/internal/config"
	"github.com/bestfit-labs/coach-tui/internal/history"
	"github.com/bestfit-labs/coach-tui/internal/identity"
	"github.com/bestfit-labs/coach-tui/internal/model"
	"github.com/bestfit-labs/coach-tui/internal/ui/components"
	"github.com/bestfit-labs/coach-tui/internal/ui/styles"
	"github.com/bestfit-labs/coach-tui/internal/voice"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options bundles the collaborators the chat model needs. Everything is
// injected; the model creates nothing that talks to the network or disk.
type Options struct {
	Config     *config.Config
	Client     *api.Client
	Identity   *identity.Manager
	Conv       *model.Conversation
	Dispatcher *voice.Dispatcher
	Loop       *voice.Loop
	Playback   *audio.PlaybackManager
	History    *history.Store // nil disables persistence
	Streak     int
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	cfg        *config.Config
	client     *api.Client
	ident      *identity.Manager
	conv       *model.Conversation
	dispatcher *voice.Dispatcher
	loop       *voice.Loop
	playback   *audio.PlaybackManager
	hist       *history.Store

	// Styling and components
	theme     *styles.Theme
	statusBar *components.StatusBar
	notices   *components.NoticeManager
	renderer  *components.MessageRenderer
	welcome   *components.Welcome

	// Bubbles
	viewport viewport.Model
	input    textinput.Model
	keyMap   KeyMap

	// Dimensions
	width  int
	height int
	ready  bool

	// Flight state
	sending   bool
	voiceMode bool

	// History listing shown by /history, indexed by /load <n>
	lastListing []model.ConversationMeta
}

// New creates the chat model.
func New(opts Options) Model {
	theme := styles.NewThemeFor(opts.Config.UI.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Message your coach..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	renderer := components.NewMessageRenderer(theme)
	renderer.ShowTimestamps = opts.Config.UI.ShowTimestamps
	if opts.Config.UI.Markdown {
		if md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(76),
		); err == nil {
			renderer.Markdown = md.Render
		}
	}

	statusBar := components.NewStatusBar(theme)
	statusBar.Streak = opts.Streak
	statusBar.AutoSpeak = opts.Dispatcher.AutoSpeak()
	statusBar.Guest = opts.Identity.IsGuest()

	welcome := components.NewWelcome(theme)
	welcome.Streak = opts.Streak
	welcome.Guest = opts.Identity.IsGuest()

	return Model{
		cfg:        opts.Config,
		client:     opts.Client,
		ident:      opts.Identity,
		conv:       opts.Conv,
		dispatcher: opts.Dispatcher,
		loop:       opts.Loop,
		playback:   opts.Playback,
		hist:       opts.History,
		theme:      theme,
		statusBar:  statusBar,
		notices:    components.NewNoticeManager(),
		renderer:   renderer,
		welcome:    welcome,
		viewport:   vp,
		input:      ti,
		keyMap:     DefaultKeyMap(),
	}
}

// Init starts the session handshake, the voice event pump, and the
// animation tickers.
func (m Model) Init() tea.Cmd {
	userID, err := m.ident.UserID()

	cmds := []tea.Cmd{
		textinput.Blink,
		frameTickCmd(),
		components.NoticeTickCmd(),
		waitVoiceEventCmd(m.loop),
		fetchUsageCmd(m.client),
	}

	if err == nil {
		cmds = append(cmds, createSessionCmd(m.client, userID))
	} else {
		m.notices.Add(noticeFor(err))
	}

	return tea.Batch(cmds...)
}

// refreshTranscript re-renders the conversation into the viewport and
// keeps it pinned to the latest message.
func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderer.RenderAll(m.conv.Messages))
	m.viewport.GotoBottom()
}

// showingWelcome reports whether the empty-session welcome replaces the
// transcript view.
func (m *Model) showingWelcome() bool {
	return len(m.conv.Messages) == 0
}

// ApplyConfig absorbs a hot-reloaded configuration. Only the settings
// that are safe to change mid-session are applied.
func (m *Model) ApplyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.renderer.ShowTimestamps = cfg.UI.ShowTimestamps
	m.dispatcher.SetAutoSpeak(cfg.Voice.AutoSpeak)
	m.statusBar.AutoSpeak = cfg.Voice.AutoSpeak
	m.refreshTranscript()
}
