package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

// Groq exposes an OpenAI-compatible API, so the stock client works with a
// swapped base URL.
const (
	groqBaseURL  = "https://api.groq.com/openai/v1"
	defaultModel = "llama-3.3-70b-versatile"
)

// ErrMissingAPIKey is returned before any network I/O when no Groq key is
// configured.
var ErrMissingAPIKey = errors.New("GROQ_API_KEY is not configured; set it in .env or the environment before using chat and document features")

// Message is one entry of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the assistant's structured chat output.
type Reply struct {
	FullText   string `json:"full_text"`
	SpokenText string `json:"spoken_text"`
}

// Client wraps the Groq chat-completion API.
type Client struct {
	api   *openai.Client
	model string
}

// New returns a Client. The key may be empty; calls report
// ErrMissingAPIKey without touching the network.
func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, groqBaseURL)
}

// NewWithBaseURL points the client at an alternate OpenAI-compatible
// endpoint (tests).
func NewWithBaseURL(apiKey, baseURL string) *Client {
	if apiKey == "" {
		return &Client{}
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{api: openai.NewClientWithConfig(cfg), model: defaultModel}
}

// Configured reports whether a credential was provided.
func (c *Client) Configured() bool { return c.api != nil }

// ChatJSON sends the message window in JSON mode and returns the raw model
// output. Empty output is an error.
func (c *Client) ChatJSON(ctx context.Context, messages []Message) (string, error) {
	if c.api == nil {
		return "", ErrMissingAPIKey
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.model,
		Messages:       chatMessages,
		Temperature:    0.2,
		MaxTokens:      1200,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("groq error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq empty response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("groq returned empty content")
	}
	return content, nil
}

// ParseReply extracts {full_text, spoken_text} from raw model output. If the
// output is not valid JSON, the raw text stands in for both fields — the
// caller never sees a parse error. An empty field falls back individually:
// raw text for full_text, full_text for spoken_text.
func ParseReply(raw string) Reply {
	raw = stripFences(raw)

	var parsed struct {
		FullText   string `json:"full_text"`
		SpokenText string `json:"spoken_text"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Reply{FullText: raw, SpokenText: raw}
	}
	full := parsed.FullText
	if strings.TrimSpace(full) == "" {
		full = raw
	}
	spoken := parsed.SpokenText
	if strings.TrimSpace(spoken) == "" {
		spoken = full
	}
	return Reply{FullText: full, SpokenText: spoken}
}

// stripFences removes a markdown code fence wrapper that some models add
// around JSON output.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json\n")
		raw = strings.TrimPrefix(raw, "```\n")
		raw = strings.Split(raw, "```")[0]
	}
	return strings.TrimSpace(raw)
}

const explainPromptFormat = `You are an expert financial explainer for first-time loan applicants, working in 'Explain Like I'm 18 Mode'. Your task is to analyze the following loan document text.

**Your output MUST be formatted using standard Markdown syntax (e.g., ## for headings, * for lists, ** for bolding) to ensure clarity.**

## Summary of Key Loan Terms
1. Summarize the **Key Terms** (Interest Rate, Tenure, EMI, Prepayment Penalty) in a bulleted list, using simple analogies.

## Risks and Commitments Explained
2. Provide a **simple explanation** of the main risks and commitments in the document.

3. Convert all financial jargon into plain-language and relatable examples.

4. The final response must be in English for the next translation step.

Document Text:
---
%s
---`

// explainInputLimit bounds how much extracted text is fed to the model.
const explainInputLimit = 4000

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ExplainDocument feeds extracted document text into the fixed
// plain-language prompt. The answer is always in English, the pivot
// language for the later vernacular translation step.
func (c *Client) ExplainDocument(ctx context.Context, rawText string) (string, error) {
	if c.api == nil {
		return "", ErrMissingAPIKey
	}

	excerpt := truncateUTF8(rawText, explainInputLimit)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(explainPromptFormat, excerpt)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("groq error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq empty response")
	}
	explanation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if explanation == "" {
		return "", fmt.Errorf("model failed to generate an explanation")
	}
	return explanation, nil
}

// SystemPrompt builds the chat system prompt for the selected display
// language.
func SystemPrompt(language string) string {
	return fmt.Sprintf(`You are a knowledgeable financial assistant specializing in loans.

When the user asks about a loan:
- Provide a complete explanation including interest rates, fees, and important considerations.
- Do NOT ask unnecessary follow-up questions.
- Respond completely in %s.
- Keep answers structured and clear.

Return ONLY valid JSON:
{
  "full_text": "...detailed explanation...",
  "spoken_text": "...short conversational summary..."
}`, language)
}

// LanguageName maps a Sarvam language code to the display name used in the
// chat system prompt. Unknown codes default to English.
func LanguageName(code string) string {
	names := map[string]string{
		"en-IN": "English",
		"hi-IN": "Hindi",
		"te-IN": "Telugu",
		"ta-IN": "Tamil",
		"kn-IN": "Kannada",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return "English"
}
