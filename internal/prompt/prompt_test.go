package prompt

import (
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func messageText(m *ai.Message) string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.Kind == ai.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func TestStyles(t *testing.T) {
	styles := Styles()
	want := []string{"default", "pirate", "kid", "bullets"}
	if len(styles) != len(want) {
		t.Fatalf("got %d styles, want %d", len(styles), len(want))
	}
	for i, s := range want {
		if styles[i] != s {
			t.Errorf("styles[%d] = %q, want %q", i, styles[i], s)
		}
	}
	for _, s := range styles {
		if !Valid(s) {
			t.Errorf("Valid(%q) = false", s)
		}
	}
	if Valid("haiku") {
		t.Error("Valid(haiku) = true, want false")
	}
}

func TestSystem_UnknownFallsBackToDefault(t *testing.T) {
	if System("nonsense") != System(StyleDefault) {
		t.Error("unknown style should fall back to default system prompt")
	}
	if !strings.Contains(System(StylePirate), "pirate") {
		t.Error("pirate system prompt should mention pirates")
	}
}

func TestBuild_Default(t *testing.T) {
	msgs := Build([]string{"Go is a programming language.", "It was designed at Google."}, "What is Go?", StyleDefault)

	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1 (default style has no examples)", len(msgs))
	}
	if msgs[0].Role != ai.RoleUser {
		t.Errorf("role = %q, want user", msgs[0].Role)
	}

	text := messageText(msgs[0])
	if !strings.HasPrefix(text, "Context from Wikipedia:\n") {
		t.Errorf("missing context header: %q", text)
	}
	if !strings.Contains(text, "Go is a programming language.\n\nIt was designed at Google.") {
		t.Errorf("chunks should be joined with blank lines: %q", text)
	}
	if !strings.HasSuffix(text, "Question: What is Go?") {
		t.Errorf("missing question suffix: %q", text)
	}
}

func TestBuild_EmptyContext(t *testing.T) {
	msgs := Build(nil, "What is Go?", StyleDefault)
	text := messageText(msgs[0])
	if !strings.Contains(text, "No relevant context found.") {
		t.Errorf("empty context placeholder missing: %q", text)
	}
}

func TestBuild_FewShotExamples(t *testing.T) {
	tests := []struct {
		style   string
		marker  string
		wantLen int
	}{
		{StylePirate, "Arr matey", 3},
		{StyleKid, "gentle giants", 3},
		{StyleBullets, "Guido van Rossum", 3},
		{StyleDefault, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			msgs := Build([]string{"ctx"}, "q", tt.style)
			if len(msgs) != tt.wantLen {
				t.Fatalf("got %d messages, want %d", len(msgs), tt.wantLen)
			}
			if tt.marker == "" {
				return
			}
			if msgs[0].Role != ai.RoleUser || msgs[1].Role != ai.RoleModel {
				t.Errorf("example roles = %q, %q; want user, model", msgs[0].Role, msgs[1].Role)
			}
			if !strings.Contains(messageText(msgs[1]), tt.marker) {
				t.Errorf("example answer missing marker %q", tt.marker)
			}
		})
	}
}

func TestBuild_UnknownStyle(t *testing.T) {
	msgs := Build([]string{"ctx"}, "q", "klingon")
	if len(msgs) != 1 {
		t.Fatalf("unknown style should behave like default, got %d messages", len(msgs))
	}
}

func TestFormatPreview(t *testing.T) {
	tests := []struct {
		name    string
		context []string
		maxLen  int
		want    string
	}{
		{"empty", nil, 200, "No context available"},
		{"short", []string{"one", "two"}, 200, "one two"},
		{"truncated", []string{"alpha beta gamma delta"}, 12, "alpha beta..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPreview(tt.context, tt.maxLen)
			if got != tt.want {
				t.Errorf("FormatPreview = %q, want %q", got, tt.want)
			}
		})
	}
}
