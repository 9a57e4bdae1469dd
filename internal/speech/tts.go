package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const ttsURL = "https://api.sarvam.ai/text-to-speech"

// Profile is the per-language voice configuration. Chunk size bounds each
// synthesis window in characters; silence bytes pad the gap between
// windows in the assembled stream.
type Profile struct {
	Model        string
	Speaker      string
	ChunkSize    int
	SilenceBytes int
}

// DefaultLanguage is the profile used for unknown language codes.
const DefaultLanguage = "en-IN"

// Allowed bulbul:v2 speakers: anushka, abhilash, manisha, vidya, arya,
// karun, hitesh.
var voiceProfiles = map[string]Profile{
	"en-IN": {Model: "bulbul:v2", Speaker: "anushka", ChunkSize: 500, SilenceBytes: 2000},
	"hi-IN": {Model: "bulbul:v2", Speaker: "abhilash", ChunkSize: 300, SilenceBytes: 3000},
	"ta-IN": {Model: "bulbul:v2", Speaker: "vidya", ChunkSize: 300, SilenceBytes: 3000},
	"te-IN": {Model: "bulbul:v2", Speaker: "karun", ChunkSize: 300, SilenceBytes: 3000},
	"kn-IN": {Model: "bulbul:v2", Speaker: "hitesh", ChunkSize: 300, SilenceBytes: 3000},
	"ml-IN": {Model: "bulbul:v2", Speaker: "arya", ChunkSize: 300, SilenceBytes: 3000},
	"mr-IN": {Model: "bulbul:v2", Speaker: "manisha", ChunkSize: 300, SilenceBytes: 3000},
	"bn-IN": {Model: "bulbul:v2", Speaker: "anushka", ChunkSize: 300, SilenceBytes: 3000},
	"gu-IN": {Model: "bulbul:v2", Speaker: "karun", ChunkSize: 300, SilenceBytes: 3000},
	"pa-IN": {Model: "bulbul:v2", Speaker: "hitesh", ChunkSize: 300, SilenceBytes: 3000},
}

// ProfileFor returns the voice profile for a language code, defaulting to
// the English profile for unknown codes.
func ProfileFor(languageCode string) Profile {
	if p, ok := voiceProfiles[languageCode]; ok {
		return p
	}
	return voiceProfiles[DefaultLanguage]
}

// SplitWindows cuts text into fixed-length rune windows. Unlike the
// translation chunker this is deliberately not sentence-aware: synthesis
// quality tolerates mid-sentence cuts and the fixed size keeps every
// request under the voice model's input bound.
func SplitWindows(text string, size int) []string {
	runes := []rune(text)
	var windows []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[i:end]))
	}
	return windows
}

// synthesize requests audio for one window and returns the decoded bytes.
func (c *Client) synthesize(ctx context.Context, text, languageCode string, p Profile) ([]byte, error) {
	body := map[string]interface{}{
		"inputs":               []string{text},
		"target_language_code": languageCode,
		"speaker":              p.Speaker,
		"pitch":                0,
		"pace":                 1.0,
		"loudness":             1.0,
		"speech_sample_rate":   22050,
		"enable_preprocessing": true,
		"model":                p.Model,
	}
	if languageCode == "en-IN" {
		body["eng_interpolation_wt"] = 123
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ttsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("text-to-speech request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("text-to-speech failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Audios []string `json:"audios"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse synthesis response: %w", err)
	}
	if len(result.Audios) == 0 || result.Audios[0] == "" {
		return nil, fmt.Errorf("no audio in response")
	}

	audio, err := base64.StdEncoding.DecodeString(result.Audios[0])
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return audio, nil
}

// SynthesizeAll voices the whole text: it is split into per-profile
// fixed-length windows, each synthesized independently and appended to the
// output followed by a silence padding block. A failed window is logged
// and skipped; the operation fails only when nothing useful was produced.
func (c *Client) SynthesizeAll(ctx context.Context, text, languageCode string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	profile := ProfileFor(languageCode)
	silence := make([]byte, profile.SilenceBytes)

	var combined bytes.Buffer
	for _, window := range SplitWindows(text, profile.ChunkSize) {
		if strings.TrimSpace(window) == "" {
			continue
		}
		audio, err := c.synthesize(ctx, window, languageCode, profile)
		if err != nil {
			log.Printf("TTS error for window, skipping: %v", err)
			continue
		}
		combined.Write(audio)
		combined.Write(silence)
	}

	if combined.Len() <= profile.SilenceBytes {
		return nil, fmt.Errorf("failed to generate audio")
	}
	return combined.Bytes(), nil
}

// SetTTSURL overrides the synthesis endpoint (tests).
func (c *Client) SetTTSURL(u string) { c.ttsURL = u }
