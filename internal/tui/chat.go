// Package tui is the terminal chat screen. All conversation state lives in
// the Bubble Tea event loop, so every mutation happens on one logical
// thread; network calls run as commands and come back as messages.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sentinl-app/sentinl/client/internal/api"
	"github.com/sentinl-app/sentinl/client/internal/model/chat"
	"github.com/sentinl-app/sentinl/client/internal/recorder"
)

// CoachClient is the slice of the API client the chat screen needs.
type CoachClient interface {
	SendText(ctx context.Context, message string) (string, error)
	SendVoice(ctx context.Context, audio []byte) (string, error)
}

// StreamFunc optionally streams a reply in chunks; nil disables streaming.
type StreamFunc func(ctx context.Context, message string) (<-chan api.StreamChunk, error)

const defaultGreeting = "Hello! I'm your AI Coach. How can I help you with your discipline today?"

var quickActions = []string{
	"I'm struggling with motivation",
	"Help me break down this task",
	"I need to adjust my schedule",
	"Celebrate my progress",
}

type coachReplyMsg struct {
	epoch int
	text  string
}

type voiceReplyMsg struct {
	epoch int
	text  string
}

type recTickMsg struct{}

type menuState struct {
	visible  bool
	targetID int64
	anchor   Anchor
}

// ChatModel drives the coach chat screen.
type ChatModel struct {
	coach  CoachClient
	stream StreamFunc
	rec    *recorder.Controller
	store  *chat.Store

	input textinput.Model
	spin  spinner.Model

	// epoch invalidates in-flight replies when the conversation is reset;
	// a stale reply carries the epoch it was launched under and is dropped.
	epoch    int
	inflight int

	selecting bool
	selected  int
	menu      menuState

	greeting string
	status   string
	width  int
	height int

	now func() time.Time
}

// NewChat builds the chat screen. stream may be nil to force plain sends;
// opening overrides the coach's seeded greeting when non-empty, typically
// with the active tone's opening line.
func NewChat(coach CoachClient, stream StreamFunc, rec *recorder.Controller, opening string) ChatModel {
	in := textinput.New()
	in.Placeholder = "Type your message..."
	in.Prompt = "> "
	in.Focus()
	in.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	if opening == "" {
		opening = defaultGreeting
	}

	m := ChatModel{
		coach:    coach,
		stream:   stream,
		rec:      rec,
		store:    chat.NewStore(),
		input:    in,
		spin:     sp,
		greeting: opening,
		width:    80,
		height:   24,
		now:      time.Now,
	}
	m.seedGreeting()
	return m
}

func (m *ChatModel) seedGreeting() {
	m.store.Append(chat.Message{
		Text:      m.greeting,
		Sender:    chat.SenderAssistant,
		Timestamp: chat.Clock(m.now()),
	})
}

// Init starts the spinner.
func (m ChatModel) Init() tea.Cmd {
	return m.spin.Tick
}

// Update is the single mutation point for all chat state.
func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case coachReplyMsg:
		if msg.epoch != m.epoch {
			// Reply for an abandoned conversation; drop it silently.
			return m, nil
		}
		m.inflight--
		m.appendCoach(msg.text)
		return m, nil

	case voiceReplyMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.inflight--
		m.rec.Finish()
		m.appendCoach(msg.text)
		return m, nil

	case recTickMsg:
		m.rec.Tick()
		if m.rec.State() == recorder.StateRecording {
			return m, tickRecording()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ChatModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.menu.visible {
		return m.handleMenuKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		m.rec.Cancel()
		return m, tea.Quit

	case "esc":
		if m.rec.State() == recorder.StateRecording {
			m.rec.Cancel()
			m.status = "Recording discarded"
			return m, nil
		}
		if m.selecting {
			m.selecting = false
			return m, nil
		}
		return m, tea.Quit

	case "enter":
		if m.selecting {
			return m.openMenu()
		}
		return m.submit()

	case "up":
		if m.store.Len() == 0 {
			return m, nil
		}
		if !m.selecting {
			m.selecting = true
			m.selected = m.store.Len() - 1
		} else if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "down":
		if m.selecting {
			if m.selected < m.store.Len()-1 {
				m.selected++
			} else {
				m.selecting = false
			}
		}
		return m, nil

	case "ctrl+r":
		return m.toggleRecording()

	case "ctrl+n":
		return m.resetConversation()
	}

	if m.input.Value() == "" {
		if idx := quickActionIndex(msg.String()); idx >= 0 {
			m.input.SetValue(quickActions[idx])
			m.input.CursorEnd()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func quickActionIndex(key string) int {
	if len(key) != 1 || key[0] < '1' {
		return -1
	}
	idx := int(key[0] - '1')
	if idx >= len(quickActions) {
		return -1
	}
	return idx
}

// submit validates and optimistically appends the user's message, then
// launches the coach call. Empty or whitespace-only input does nothing at
// all: no append, no network.
func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	m.store.Append(chat.Message{
		Text:      text,
		Sender:    chat.SenderUser,
		Timestamp: chat.Clock(m.now()),
		Status:    chat.StatusSent,
	})
	m.input.SetValue("")
	m.inflight++
	m.status = ""

	return m, m.sendCmd(text)
}

// sendCmd resolves to exactly one coachReplyMsg: the real reply, or the
// fallback when anything went wrong. Replies land in completion order.
func (m ChatModel) sendCmd(text string) tea.Cmd {
	epoch := m.epoch
	coach := m.coach
	stream := m.stream
	return func() tea.Msg {
		ctx := context.Background()

		if stream != nil {
			if reply, ok := collectStream(ctx, stream, text); ok {
				return coachReplyMsg{epoch: epoch, text: reply}
			}
		}

		reply, err := coach.SendText(ctx, text)
		if err != nil {
			reply = api.FallbackReply
		}
		return coachReplyMsg{epoch: epoch, text: reply}
	}
}

// collectStream assembles a streamed reply. Any stream failure reports not
// ok so the caller falls back to the plain request path.
func collectStream(ctx context.Context, stream StreamFunc, text string) (string, bool) {
	chunks, err := stream(ctx, text)
	if err != nil {
		return "", false
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			return "", false
		}
		if chunk.Done {
			break
		}
		b.WriteString(chunk.Text)
	}

	reply := strings.TrimSpace(b.String())
	if reply == "" {
		return "", false
	}
	return reply, true
}

func (m *ChatModel) appendCoach(text string) {
	m.store.Append(chat.Message{
		Text:      text,
		Sender:    chat.SenderAssistant,
		Timestamp: chat.Clock(m.now()),
	})
}

func (m ChatModel) toggleRecording() (tea.Model, tea.Cmd) {
	switch m.rec.State() {
	case recorder.StateIdle:
		if err := m.rec.Start(context.Background()); err != nil {
			// Permission denial or a missing device: no side effects,
			// the transcript is untouched.
			m.status = fmt.Sprintf("Can't record: %v", err)
			return m, nil
		}
		m.status = ""
		return m, tickRecording()

	case recorder.StateRecording:
		elapsed := m.rec.Elapsed()
		artifact, err := m.rec.Stop()
		if err != nil {
			m.status = fmt.Sprintf("Recording failed: %v", err)
			return m, nil
		}

		m.store.Append(chat.Message{
			Text:      fmt.Sprintf("Voice note (%ds)", elapsed),
			Sender:    chat.SenderUser,
			Timestamp: chat.Clock(m.now()),
			Status:    chat.StatusSent,
		})
		m.inflight++

		epoch := m.epoch
		coach := m.coach
		return m, func() tea.Msg {
			reply, err := coach.SendVoice(context.Background(), artifact)
			if err != nil {
				reply = api.FallbackReply
			}
			return voiceReplyMsg{epoch: epoch, text: reply}
		}
	}
	return m, nil
}

func tickRecording() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return recTickMsg{}
	})
}

// resetConversation abandons the session: in-flight replies become stale
// and will be discarded when they land.
func (m ChatModel) resetConversation() (tea.Model, tea.Cmd) {
	m.epoch++
	m.inflight = 0
	m.store = chat.NewStore()
	m.rec.Cancel()
	m.selecting = false
	m.menu = menuState{}
	m.status = ""
	m.seedGreeting()
	return m, nil
}

// openMenu shows the context menu for the selected message, anchored next
// to its rendered bubble.
func (m ChatModel) openMenu() (tea.Model, tea.Cmd) {
	messages := m.store.All()
	if m.selected < 0 || m.selected >= len(messages) {
		m.selecting = false
		return m, nil
	}

	target := messages[m.selected]
	box := m.boxFor(m.selected)
	m.menu = menuState{
		visible:  true,
		targetID: target.ID,
		anchor:   AnchorFor(box, target.Sender == chat.SenderUser),
	}
	return m, nil
}

func (m ChatModel) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target, ok := m.store.Get(m.menu.targetID)
	if !ok {
		// Target vanished; the menu must not act on it.
		m.menu = menuState{}
		return m, nil
	}

	switch msg.String() {
	case "c":
		if err := clipboard.WriteAll(target.Text); err != nil {
			m.status = "Copy failed"
		} else {
			m.status = "Copied to clipboard"
		}
	case "r":
		m.input.SetValue(fmt.Sprintf("Re: %q ", truncate(target.Text, 40)))
		m.input.CursorEnd()
	case "d":
		m.store.Remove(target.ID)
		if m.selected >= m.store.Len() {
			m.selected = m.store.Len() - 1
		}
		m.status = "Message deleted"
	case "x":
		m.status = "Reported. Thanks for flagging this."
	case "esc":
		// Just close.
	default:
		return m, nil
	}

	m.menu = menuState{}
	m.selecting = false
	return m, nil
}

// truncate shortens s to at most n runes, never splitting a rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// boxFor computes the rendered bounding box of a message bubble in cells,
// matching the layout View produces.
func (m ChatModel) boxFor(index int) Rect {
	messages := m.store.All()
	y := 0
	for i := 0; i < index && i < len(messages); i++ {
		y += lipgloss.Height(m.renderBubble(messages[i], false))
	}

	bubble := m.renderBubble(messages[index], false)
	w := lipgloss.Width(bubble)
	h := lipgloss.Height(bubble)

	x := 0
	if messages[index].Sender == chat.SenderUser {
		x = m.width - w
		if x < 0 {
			x = 0
		}
	}
	return Rect{X: x, Y: y, Width: w, Height: h}
}

func (m ChatModel) renderBubble(msg chat.Message, selected bool) string {
	label := msg.Timestamp
	if msg.Sender == chat.SenderUser && msg.Status != chat.StatusNone {
		label += " · " + string(msg.Status)
	}

	body := msg.Text + "\n" + timestampStyle.Render(label)

	style := coachBubbleStyle
	if msg.Sender == chat.SenderUser {
		style = userBubbleStyle
	}
	if selected {
		style = selectedBubbleStyle
	}

	maxWidth := m.width * 4 / 5
	if maxWidth > 4 {
		style = style.MaxWidth(maxWidth)
	}
	return style.Render(body)
}

// View renders the transcript, quick actions, input line, and status bar.
func (m ChatModel) View() string {
	var b strings.Builder

	messages := m.store.All()
	for i, msg := range messages {
		selected := m.selecting && i == m.selected
		bubble := m.renderBubble(msg, selected)
		if msg.Sender == chat.SenderUser {
			bubble = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bubble)
		}
		b.WriteString(bubble)
		b.WriteString("\n")
	}

	if m.menu.visible {
		menu := menuStyle.Render("c copy\nr reply\nd delete\nx report")
		b.WriteString(lipgloss.NewStyle().MarginLeft(max(0, m.menu.anchor.Left)).Render(menu))
		b.WriteString("\n")
	}

	if !m.selecting && m.input.Value() == "" {
		var actions []string
		for i, action := range quickActions {
			actions = append(actions, quickActionStyle.Render(fmt.Sprintf("%d %s", i+1, action)))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, actions...))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m ChatModel) statusLine() string {
	switch {
	case m.rec.State() == recorder.StateRecording:
		return recordingStyle.Render(fmt.Sprintf("● REC %ds", m.rec.Elapsed())) +
			statusBarStyle.Render("  ctrl+r send · esc discard")
	case m.rec.State() == recorder.StateProcessing || m.inflight > 0:
		return m.spin.View() + statusBarStyle.Render(" Coach is thinking...")
	case m.status != "":
		return statusBarStyle.Render(m.status)
	default:
		return statusBarStyle.Render("enter send · ctrl+r voice · up select · ctrl+n new · esc quit")
	}
}
