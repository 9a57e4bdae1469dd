package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

// ========== ParseReply ==========

func TestParseReply_ValidJSON(t *testing.T) {
	raw := `{
		"full_text": "A home loan is money borrowed to buy a house.",
		"spoken_text": "It's money you borrow to buy a house."
	}`

	got := ParseReply(raw)
	if got.FullText != "A home loan is money borrowed to buy a house." {
		t.Errorf("full_text = %q", got.FullText)
	}
	if got.SpokenText != "It's money you borrow to buy a house." {
		t.Errorf("spoken_text = %q", got.SpokenText)
	}
}

func TestParseReply_WrappedInCodeFence(t *testing.T) {
	raw := "```json\n" + `{"full_text": "Fenced answer.", "spoken_text": "Short."}` + "\n```"

	got := ParseReply(raw)
	if got.FullText != "Fenced answer." {
		t.Errorf("full_text = %q, want 'Fenced answer.'", got.FullText)
	}
}

func TestParseReply_BareFence(t *testing.T) {
	raw := "```\n" + `{"full_text": "Answer.", "spoken_text": "A."}` + "\n```"

	got := ParseReply(raw)
	if got.FullText != "Answer." {
		t.Errorf("full_text = %q, want 'Answer.'", got.FullText)
	}
}

func TestParseReply_InvalidJSON_FallsBackToRawText(t *testing.T) {
	raw := "This is not JSON at all, just plain text from the model."

	got := ParseReply(raw)
	if got.FullText != raw {
		t.Errorf("full_text = %q, want the raw text", got.FullText)
	}
	if got.SpokenText != raw {
		t.Errorf("spoken_text = %q, want the raw text", got.SpokenText)
	}
}

func TestParseReply_EmptyFullText_KeepsSpokenText(t *testing.T) {
	raw := `{"full_text": "", "spoken_text": "short summary"}`

	got := ParseReply(raw)
	if got.FullText != raw {
		t.Errorf("full_text = %q, want the raw text fallback", got.FullText)
	}
	if got.SpokenText != "short summary" {
		t.Errorf("spoken_text = %q, want the provided value kept", got.SpokenText)
	}
}

func TestParseReply_MissingSpokenText_ReusesFullText(t *testing.T) {
	raw := `{"full_text": "Only the long answer."}`

	got := ParseReply(raw)
	if got.SpokenText != "Only the long answer." {
		t.Errorf("spoken_text = %q, want full_text reused", got.SpokenText)
	}
}

// ========== truncateUTF8 ==========

func TestTruncateUTF8_ShortInputUntouched(t *testing.T) {
	if got := truncateUTF8("short text", 4000); got != "short text" {
		t.Errorf("got %q", got)
	}
}

func TestTruncateUTF8_NeverSplitsARune(t *testing.T) {
	// Devanagari runes are 3 bytes; most limits land mid-rune.
	s := strings.Repeat("न", 2000)
	for _, limit := range []int{4000, 4001, 4002} {
		got := truncateUTF8(s, limit)
		if len(got) > limit {
			t.Errorf("limit %d: result is %d bytes", limit, len(got))
		}
		if !utf8.ValidString(got) {
			t.Errorf("limit %d: result is not valid UTF-8", limit)
		}
	}
}

// ========== prompts ==========

func TestSystemPrompt_EmbedsLanguage(t *testing.T) {
	p := SystemPrompt("Hindi")
	if !strings.Contains(p, "Respond completely in Hindi") {
		t.Errorf("prompt missing language directive:\n%s", p)
	}
	if !strings.Contains(p, "full_text") || !strings.Contains(p, "spoken_text") {
		t.Error("prompt missing JSON shape instructions")
	}
}

func TestLanguageName(t *testing.T) {
	cases := map[string]string{
		"en-IN": "English",
		"hi-IN": "Hindi",
		"te-IN": "Telugu",
		"ta-IN": "Tamil",
		"kn-IN": "Kannada",
		"xx-XX": "English",
		"":      "English",
	}
	for code, want := range cases {
		if got := LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q, want %q", code, got, want)
		}
	}
}

// ========== unconfigured client ==========

func TestUnconfiguredClient(t *testing.T) {
	c := New("")
	if c.Configured() {
		t.Error("Configured() = true for empty key")
	}
	if _, err := c.ChatJSON(context.Background(), []Message{{Role: "user", Content: "hi"}}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("ChatJSON err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := c.ExplainDocument(context.Background(), "text"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("ExplainDocument err = %v, want ErrMissingAPIKey", err)
	}
}
