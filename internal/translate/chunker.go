package translate

import (
	"context"
	"log"
	"strings"
	"unicode"
)

// LongThreshold is the input length above which /translate switches to
// chunked mode. ChunkMargin is reserved headroom below the provider's
// per-call limit so style parameters never push a chunk over it.
const (
	LongThreshold = 1000
	ChunkMargin   = 50
)

// LongResult is the outcome of a chunked translation.
type LongResult struct {
	TranslatedText string
	ChunkCount     int
	Chunked        bool
}

// SplitSentences splits text at sentence boundaries: a run of '.', '!' or
// '?' followed by whitespace ends a sentence. Words are never split.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// consume the full terminator run
			for i < len(runes) && (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') {
				i++
			}
			if i >= len(runes) || unicode.IsSpace(runes[i]) {
				sentences = append(sentences, string(runes[start:i]))
				for i < len(runes) && unicode.IsSpace(runes[i]) {
					i++
				}
				start = i
				continue
			}
		}
		i++
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

// BuildChunks groups sentences greedily into chunks that stay below
// limit - ChunkMargin characters. A single sentence longer than the margin
// still becomes its own chunk rather than being split mid-word.
func BuildChunks(text string, limit int) []string {
	margin := limit - ChunkMargin
	var chunks []string
	var current strings.Builder

	for _, sentence := range SplitSentences(text) {
		if current.Len()+len(sentence) < margin {
			current.WriteString(sentence)
			current.WriteString(" ")
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
		current.WriteString(sentence)
		current.WriteString(" ")
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// TranslateLong translates text that exceeds the provider's size limit by
// splitting it into sentence-respecting chunks, translating each in order,
// and joining the results with single spaces. The operation is strict: the
// first chunk failure aborts the whole translation and any chunks already
// translated are discarded.
func (c *Client) TranslateLong(ctx context.Context, req Request) (*LongResult, error) {
	chunks := BuildChunks(req.Input, LongThreshold)

	translated := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunkReq := req
		chunkReq.Input = chunk
		res, err := c.Translate(ctx, chunkReq)
		if err != nil {
			return nil, err
		}
		translated = append(translated, res.TranslatedText)
	}

	return &LongResult{
		TranslatedText: strings.Join(translated, " "),
		ChunkCount:     len(chunks),
		Chunked:        true,
	}, nil
}

// Policy declares how a call site degrades when translation fails.
type Policy int

const (
	// Strict aborts the caller's operation on any translation failure.
	Strict Policy = iota
	// BestEffort falls back to the untranslated input with a logged
	// warning instead of failing the caller's operation.
	BestEffort
)

// LongWithPolicy runs TranslateLong under the given degradation policy.
// Under BestEffort a failure returns the original input unchanged.
func (c *Client) LongWithPolicy(ctx context.Context, req Request, policy Policy) (string, error) {
	res, err := c.TranslateLong(ctx, req)
	if err != nil {
		if policy == BestEffort {
			log.Printf("Warning: translation to %s failed, keeping source text: %v", req.TargetLanguageCode, err)
			return req.Input, nil
		}
		return "", err
	}
	return res.TranslatedText, nil
}

// SingleWithPolicy runs a single non-chunked Translate under the given
// degradation policy. Used by the text-to-speech pre-translation step.
func (c *Client) SingleWithPolicy(ctx context.Context, req Request, policy Policy) (string, error) {
	res, err := c.Translate(ctx, req)
	if err != nil {
		if policy == BestEffort {
			log.Printf("Warning: pre-translation to %s failed, voicing source text: %v", req.TargetLanguageCode, err)
			return req.Input, nil
		}
		return "", err
	}
	return res.TranslatedText, nil
}
