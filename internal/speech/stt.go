package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	sttURL   = "https://api.sarvam.ai/speech-to-text"
	sttModel = "saarika:v2.5"
)

// ErrMissingAPIKey is returned before any network I/O when no Sarvam key
// is configured.
var ErrMissingAPIKey = errors.New("SARVAM_API_KEY is not configured; set it in .env or the environment before using speech features")

// Client talks to the Sarvam speech APIs.
type Client struct {
	apiKey string
	sttURL string
	ttsURL string
	http   *http.Client
}

// New returns a Client. The key may be empty; calls report
// ErrMissingAPIKey without touching the network.
func New(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		sttURL: sttURL,
		ttsURL: ttsURL,
		http:   &http.Client{Timeout: 120 * time.Second},
	}
}

// Transcribe sends one audio recording to the recognition service and
// returns the transcript.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader, languageCode string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", err
	}
	_ = mw.WriteField("model", sttModel)
	_ = mw.WriteField("language_code", languageCode)
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sttURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("api-subscription-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech-to-text request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech-to-text failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse transcript response: %w", err)
	}
	if result.Transcript == "" {
		return "", fmt.Errorf("no transcript in response")
	}
	return result.Transcript, nil
}

// SetSTTURL overrides the recognition endpoint (tests).
func (c *Client) SetSTTURL(u string) { c.sttURL = u }
