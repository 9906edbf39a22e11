package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/sentinl-app/sentinl/client/internal/api"
	"github.com/sentinl-app/sentinl/client/internal/model/chat"
	"github.com/sentinl-app/sentinl/client/internal/recorder"
)

type fakeCoach struct {
	reply      string
	err        error
	textCalls  int
	voiceCalls int
}

func (f *fakeCoach) SendText(ctx context.Context, message string) (string, error) {
	f.textCalls++
	return f.reply, f.err
}

func (f *fakeCoach) SendVoice(ctx context.Context, audio []byte) (string, error) {
	f.voiceCalls++
	return f.reply, f.err
}

type stubSource struct {
	data     []byte
	startErr error
	stopErr  error
}

func (s *stubSource) Start(ctx context.Context) error { return s.startErr }
func (s *stubSource) Stop() ([]byte, error)           { return s.data, s.stopErr }
func (s *stubSource) Cancel()                         {}

func newTestChat(coach CoachClient, src *stubSource) ChatModel {
	m := NewChat(coach, nil, recorder.NewController(src), "")
	m.now = func() time.Time {
		return time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC)
	}
	return m
}

func update(t *testing.T, m ChatModel, msg tea.Msg) (ChatModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(ChatModel)
	require.True(t, ok, "model changed type")
	return model, cmd
}

func press(t *testing.T, m ChatModel, key tea.KeyType) (ChatModel, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: key})
}

func submit(t *testing.T, m ChatModel, text string) (ChatModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	return press(t, m, tea.KeyEnter)
}

func TestOpeningLineSeedsGreeting(t *testing.T) {
	m := NewChat(&fakeCoach{}, nil, recorder.NewController(&stubSource{}), "Report in. What's on the board today?")

	messages := m.store.All()
	require.Len(t, messages, 1)
	require.Equal(t, "Report in. What's on the board today?", messages[0].Text)
	require.Equal(t, chat.SenderAssistant, messages[0].Sender)

	// A reset re-seeds the same opening line.
	m, _ = press(t, m, tea.KeyCtrlN)
	require.Equal(t, "Report in. What's on the board today?", m.store.All()[0].Text)
}

func TestEmptyOpeningFallsBackToDefault(t *testing.T) {
	m := newTestChat(&fakeCoach{}, &stubSource{})
	require.Contains(t, m.store.All()[0].Text, "AI Coach")
}

func TestSubmitAppendsUserThenReply(t *testing.T) {
	coach := &fakeCoach{reply: "One step at a time."}
	m := newTestChat(coach, &stubSource{})

	m, cmd := submit(t, m, "I skipped my workout")
	require.NotNil(t, cmd)

	messages := m.store.All()
	require.Len(t, messages, 2) // greeting + user turn
	require.Equal(t, chat.SenderUser, messages[1].Sender)
	require.Equal(t, "I skipped my workout", messages[1].Text)
	require.Equal(t, chat.StatusSent, messages[1].Status)
	require.Empty(t, m.input.Value())

	m, _ = update(t, m, cmd())
	messages = m.store.All()
	require.Len(t, messages, 3)
	require.Equal(t, chat.SenderAssistant, messages[2].Sender)
	require.Equal(t, "One step at a time.", messages[2].Text)
	require.Equal(t, 1, coach.textCalls)

	// Ids stay strictly increasing across the whole exchange.
	require.Less(t, messages[0].ID, messages[1].ID)
	require.Less(t, messages[1].ID, messages[2].ID)
}

func TestWhitespaceSubmitDoesNothing(t *testing.T) {
	coach := &fakeCoach{reply: "hi"}
	m := newTestChat(coach, &stubSource{})

	m, cmd := submit(t, m, "   \t ")
	require.Nil(t, cmd)
	require.Equal(t, 1, m.store.Len())
	require.Zero(t, coach.textCalls)
}

func TestFailedSendGetsExactlyOneFallback(t *testing.T) {
	coach := &fakeCoach{err: errors.New("connection refused")}
	m := newTestChat(coach, &stubSource{})

	m, cmd := submit(t, m, "hello?")
	m, _ = update(t, m, cmd())

	messages := m.store.All()
	require.Len(t, messages, 3)
	require.Equal(t, chat.SenderAssistant, messages[2].Sender)
	require.Equal(t, api.FallbackReply, messages[2].Text)
}

func TestRepliesLandInCompletionOrder(t *testing.T) {
	coach := &fakeCoach{reply: "first done"}
	m := newTestChat(coach, &stubSource{})

	m, cmdA := submit(t, m, "question A")
	coach.reply = "second done"
	m, cmdB := submit(t, m, "question B")

	// The second request finishes before the first.
	replyB := cmdB()
	coach.reply = "first done"
	replyA := cmdA()

	m, _ = update(t, m, replyB)
	m, _ = update(t, m, replyA)

	messages := m.store.All()
	require.Len(t, messages, 5)
	require.Equal(t, "second done", messages[3].Text)
	require.Equal(t, "first done", messages[4].Text)
}

func TestRepliesLandInRequestOrder(t *testing.T) {
	coach := &fakeCoach{reply: "answer A"}
	m := newTestChat(coach, &stubSource{})

	m, cmdA := submit(t, m, "question A")
	coach.reply = "answer B"
	m, cmdB := submit(t, m, "question B")

	coach.reply = "answer A"
	replyA := cmdA()
	coach.reply = "answer B"
	replyB := cmdB()

	m, _ = update(t, m, replyA)
	m, _ = update(t, m, replyB)

	messages := m.store.All()
	require.Len(t, messages, 5)
	require.Equal(t, "answer A", messages[3].Text)
	require.Equal(t, "answer B", messages[4].Text)
}

func TestStaleReplyIsDiscardedAfterReset(t *testing.T) {
	coach := &fakeCoach{reply: "too late"}
	m := newTestChat(coach, &stubSource{})

	m, cmd := submit(t, m, "are you there")
	m, _ = press(t, m, tea.KeyCtrlN)
	require.Equal(t, 1, m.store.Len(), "reset should leave only the greeting")

	m, _ = update(t, m, cmd())
	require.Equal(t, 1, m.store.Len(), "stale reply must not be appended")
	require.Zero(t, m.inflight)
}

func TestMenuOpensNextToSelectedMessage(t *testing.T) {
	coach := &fakeCoach{reply: "noted"}
	m := newTestChat(coach, &stubSource{})
	m, cmd := submit(t, m, "my message")
	m, _ = update(t, m, cmd())

	m, _ = press(t, m, tea.KeyUp) // select last (assistant reply)
	m, _ = press(t, m, tea.KeyUp) // select the user message
	m, _ = press(t, m, tea.KeyEnter)

	require.True(t, m.menu.visible)
	target, ok := m.store.Get(m.menu.targetID)
	require.True(t, ok, "visible menu must point at an existing message")
	require.Equal(t, "my message", target.Text)
	require.Equal(t, SideLeft, m.menu.anchor.Side)
}

func TestMenuDeleteRemovesTargetAndCloses(t *testing.T) {
	coach := &fakeCoach{reply: "noted"}
	m := newTestChat(coach, &stubSource{})
	m, cmd := submit(t, m, "delete me")
	m, _ = update(t, m, cmd())

	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyEnter)
	targetID := m.menu.targetID

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	require.False(t, m.menu.visible)
	_, ok := m.store.Get(targetID)
	require.False(t, ok)
}

func TestMenuClosesWhenTargetGone(t *testing.T) {
	coach := &fakeCoach{reply: "noted"}
	m := newTestChat(coach, &stubSource{})
	m, cmd := submit(t, m, "fleeting")
	m, _ = update(t, m, cmd())

	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyEnter)
	m.store.Remove(m.menu.targetID)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.False(t, m.menu.visible, "menu over a missing target must close, not act")
}

func TestMenuReplyPrefillsInput(t *testing.T) {
	coach := &fakeCoach{reply: "noted"}
	m := newTestChat(coach, &stubSource{})
	m, cmd := submit(t, m, "original thought")
	m, _ = update(t, m, cmd())

	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyEnter)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	require.Contains(t, m.input.Value(), "original thought")
	require.False(t, m.menu.visible)
}

func TestMenuReplyPrefillKeepsRunesWhole(t *testing.T) {
	coach := &fakeCoach{reply: "noted"}
	m := newTestChat(coach, &stubSource{})
	m, cmd := submit(t, m, "é"+strings.Repeat("日", 60))
	m, _ = update(t, m, cmd())

	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyUp)
	m, _ = press(t, m, tea.KeyEnter)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})

	prefill := m.input.Value()
	require.True(t, utf8.ValidString(prefill), "truncation split a rune: %q", prefill)
	require.Contains(t, prefill, "…")
	// A byte-level cut would leave a mangled rune that %q renders as \xNN.
	require.NotContains(t, prefill, `\x`)
}

func TestQuickActionPrefill(t *testing.T) {
	m := newTestChat(&fakeCoach{}, &stubSource{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1")})
	require.Equal(t, quickActions[0], m.input.Value())

	// With text already present the digit is just typed.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	require.Equal(t, quickActions[0]+"2", m.input.Value())
}

func TestRecordingRoundTrip(t *testing.T) {
	coach := &fakeCoach{reply: "Heard you. Rest up."}
	m := newTestChat(coach, &stubSource{data: []byte("m4a")})

	m, cmd := press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	require.Equal(t, recorder.StateRecording, m.rec.State())

	m, _ = update(t, m, recTickMsg{})
	m, _ = update(t, m, recTickMsg{})
	require.Equal(t, 2, m.rec.Elapsed())

	m, cmd = press(t, m, tea.KeyCtrlR)
	require.NotNil(t, cmd)
	require.Equal(t, recorder.StateProcessing, m.rec.State())

	messages := m.store.All()
	require.Equal(t, chat.SenderUser, messages[len(messages)-1].Sender)
	require.Contains(t, messages[len(messages)-1].Text, "2s")

	m, _ = update(t, m, cmd())
	require.Equal(t, recorder.StateIdle, m.rec.State())
	require.Zero(t, m.rec.Elapsed())
	require.Equal(t, 1, coach.voiceCalls)
	messages = m.store.All()
	require.Equal(t, "Heard you. Rest up.", messages[len(messages)-1].Text)
}

func TestRecordingStartFailureHasNoSideEffects(t *testing.T) {
	coach := &fakeCoach{}
	m := newTestChat(coach, &stubSource{startErr: errors.New("mic permission denied")})

	before := m.store.Len()
	m, cmd := press(t, m, tea.KeyCtrlR)

	require.Nil(t, cmd)
	require.Equal(t, recorder.StateIdle, m.rec.State())
	require.Equal(t, before, m.store.Len())
	require.Contains(t, m.status, "permission denied")
}

func TestEscDiscardsRecording(t *testing.T) {
	m := newTestChat(&fakeCoach{}, &stubSource{data: []byte("m4a")})

	m, _ = press(t, m, tea.KeyCtrlR)
	m, _ = update(t, m, recTickMsg{})
	m, _ = press(t, m, tea.KeyEscape)

	require.Equal(t, recorder.StateIdle, m.rec.State())
	require.Zero(t, m.rec.Elapsed())
	// Nothing was sent and nothing landed in the transcript.
	require.Equal(t, 1, m.store.Len())
}

func TestStreamedReplyPreferred(t *testing.T) {
	coach := &fakeCoach{reply: "plain path"}
	m := newTestChat(coach, &stubSource{})
	m.stream = func(ctx context.Context, message string) (<-chan api.StreamChunk, error) {
		ch := make(chan api.StreamChunk, 3)
		ch <- api.StreamChunk{Text: "streamed "}
		ch <- api.StreamChunk{Text: "reply"}
		ch <- api.StreamChunk{Done: true}
		close(ch)
		return ch, nil
	}

	m, cmd := submit(t, m, "stream me")
	m, _ = update(t, m, cmd())

	messages := m.store.All()
	require.Equal(t, "streamed reply", messages[len(messages)-1].Text)
	require.Zero(t, coach.textCalls, "plain send should not run when streaming succeeds")
}

func TestStreamFailureFallsBackToPlainSend(t *testing.T) {
	coach := &fakeCoach{reply: "plain path"}
	m := newTestChat(coach, &stubSource{})
	m.stream = func(ctx context.Context, message string) (<-chan api.StreamChunk, error) {
		return nil, errors.New("dial refused")
	}

	m, cmd := submit(t, m, "stream me")
	m, _ = update(t, m, cmd())

	messages := m.store.All()
	require.Equal(t, "plain path", messages[len(messages)-1].Text)
	require.Equal(t, 1, coach.textCalls)
}
