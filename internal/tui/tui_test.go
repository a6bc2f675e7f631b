package tui

import (
	"context"
	"strings"
	"testing"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	"go.uber.org/goleak"

	"github.com/wikirag/wikirag/internal/log"
	"github.com/wikirag/wikirag/internal/prompt"
)

// goleakOptions returns standard goleak options for all TUI tests.
// Filters out persistent goroutines that are expected to exist.
func goleakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*http2clientConnReadLoop).run"),
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	}
}

// newTestModel creates a Model with properly initialized textarea for testing.
func newTestModel() *Model {
	ta := textarea.New()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	return &Model{
		state:    StateInput,
		style:    prompt.StyleDefault,
		input:    ta,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(20)),
		history:  make([]string, 0),
		styles:   DefaultStyles(),
		keys:     newKeyMap(),
		logger:   log.NewNop(),
		markdown: newMarkdownRenderer(80),
		ctx:      context.Background(), // Required for stream operations
	}
}

func TestNew_ErrorOnNilFlow(t *testing.T) {
	_, err := New(context.Background(), nil, nil, "default", log.NewNop())
	if err == nil {
		t.Error("Expected error for nil flow")
	}
}

func TestModel_Init(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return a command (blink + spinner tick)")
	}
}

func TestModel_HandleSlashCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tests := []struct {
		name     string
		cmd      string
		wantExit bool
		wantMsgs int // number of messages added
	}{
		{"help", "/help", false, 1},
		{"clear", "/clear", false, 0}, // clears messages
		{"exit", "/exit", true, 0},
		{"quit", "/quit", true, 0},
		{"unknown", "/unknown", false, 1}, // error message
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()

			// Pre-populate with a message for /clear test
			m.messages = []Message{{Role: roleUser, Text: "hello"}}

			model, cmd := m.handleSlashCommand(tt.cmd)
			result := model.(*Model)

			if tt.wantExit {
				if cmd == nil {
					t.Error("Expected quit command for exit")
				}
				return
			}

			if tt.cmd == "/clear" {
				if len(result.messages) != 0 {
					t.Error("/clear should clear messages")
				}
				return
			}

			if len(result.messages) != 1+tt.wantMsgs {
				t.Errorf("Expected %d messages, got %d", 1+tt.wantMsgs, len(result.messages))
			}
		})
	}
}

func TestModel_StyleCommand(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)
	t.Setenv("HOME", t.TempDir())

	m := newTestModel()

	// Bare /style reports the current style
	model, _ := m.handleSlashCommand("/style")
	result := model.(*Model)
	if len(result.messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(result.messages))
	}
	if !strings.Contains(result.messages[0].Text, "default") {
		t.Errorf("status message = %q, want mention of current style", result.messages[0].Text)
	}

	// Valid style switches
	model, _ = result.handleSlashCommand("/style pirate")
	result = model.(*Model)
	if result.style != prompt.StylePirate {
		t.Errorf("style = %q, want pirate", result.style)
	}
	if result.Style() != prompt.StylePirate {
		t.Errorf("Style() = %q, want pirate", result.Style())
	}

	// Invalid style keeps the current one and reports an error
	model, _ = result.handleSlashCommand("/style klingon")
	result = model.(*Model)
	if result.style != prompt.StylePirate {
		t.Errorf("style = %q, invalid name should not change it", result.style)
	}
	last := result.messages[len(result.messages)-1]
	if last.Role != roleError {
		t.Errorf("last message role = %q, want error", last.Role)
	}
}

func TestModel_EmptySubmitShowsHint(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.input.SetValue("   ")

	model, cmd := m.handleSubmit()
	result := model.(*Model)

	if cmd != nil {
		t.Error("empty submit should not start a stream")
	}
	if len(result.messages) != 1 || result.messages[0].Role != roleSystem {
		t.Fatalf("messages = %+v, want single system hint", result.messages)
	}
}

func TestModel_NavigateHistory(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.history = []string{"first", "second"}
	m.historyIdx = len(m.history)

	model, _ := m.navigateHistory(-1)
	result := model.(*Model)
	if got := result.input.Value(); got != "second" {
		t.Errorf("after up: input = %q, want second", got)
	}

	model, _ = result.navigateHistory(-1)
	result = model.(*Model)
	if got := result.input.Value(); got != "first" {
		t.Errorf("after up up: input = %q, want first", got)
	}

	// Up at the oldest entry stays put
	model, _ = result.navigateHistory(-1)
	result = model.(*Model)
	if got := result.input.Value(); got != "first" {
		t.Errorf("history should clamp at oldest entry, got %q", got)
	}

	// Down past the newest entry clears the input
	result.historyIdx = len(result.history) - 1
	model, _ = result.navigateHistory(1)
	result = model.(*Model)
	if got := result.input.Value(); got != "" {
		t.Errorf("past newest entry input should clear, got %q", got)
	}
}

func TestModel_AddMessageBounded(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	for i := 0; i < maxMessages+10; i++ {
		m.addMessage(Message{Role: roleUser, Text: "msg"})
	}
	if len(m.messages) != maxMessages {
		t.Errorf("messages length = %d, want bounded at %d", len(m.messages), maxMessages)
	}
}

func TestListenForStream_NilChannel(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	cmd := listenForStream(nil)
	if msg := cmd(); msg != nil {
		t.Errorf("nil channel should produce nil msg, got %v", msg)
	}
}

func TestListenForStream_Dispatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	ch := make(chan streamEvent, 3)
	ch <- streamEvent{} // empty event skipped
	ch <- streamEvent{text: "hello"}

	msg := listenForStream(ch)()
	textMsg, ok := msg.(streamTextMsg)
	if !ok {
		t.Fatalf("msg = %T, want streamTextMsg", msg)
	}
	if textMsg.text != "hello" {
		t.Errorf("text = %q, want hello", textMsg.text)
	}

	close(ch)
	msg = listenForStream(ch)()
	if _, ok := msg.(streamErrorMsg); !ok {
		t.Errorf("closed channel should produce streamErrorMsg, got %T", msg)
	}
}

func TestMarkdownRenderer_GracefulDegradation(t *testing.T) {
	var nilRenderer *markdownRenderer
	if got := nilRenderer.Render("# Title"); got != "# Title" {
		t.Errorf("nil renderer should pass text through, got %q", got)
	}
	if nilRenderer.UpdateWidth(100) {
		t.Error("nil renderer UpdateWidth should report false")
	}
}
