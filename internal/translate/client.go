package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.sarvam.ai/translate"

// ErrMissingAPIKey is returned before any network I/O when the client has
// no Sarvam subscription key configured.
var ErrMissingAPIKey = errors.New("SARVAM_API_KEY is not configured; set it in .env or the environment before using translation")

// UpstreamError reports a response from the translation service that did
// not contain a translated text, echoing the provider's message and
// request id when present.
type UpstreamError struct {
	Message   string
	RequestID string
	Status    int
}

func (e *UpstreamError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("translation failed: %s (request_id=%s)", e.Message, e.RequestID)
	}
	return "translation failed: " + e.Message
}

// RequestError reports a transport-level failure (timeout, connection
// refused) before any usable response was received.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "translation request failed: " + e.Err.Error() }
func (e *RequestError) Unwrap() error { return e.Err }

// Request carries one translation call's parameters.
type Request struct {
	Input              string `json:"input"`
	SourceLanguageCode string `json:"source_language_code"`
	TargetLanguageCode string `json:"target_language_code"`
	SpeakerGender      string `json:"speaker_gender"`
	Mode               string `json:"mode"`
	OutputScript       string `json:"output_script"`
	NumeralsFormat     string `json:"numerals_format"`
}

// ApplyDefaults fills unset style parameters with the service defaults.
func (r *Request) ApplyDefaults() {
	if r.SpeakerGender == "" {
		r.SpeakerGender = "Female"
	}
	if r.Mode == "" {
		r.Mode = "formal"
	}
	if r.OutputScript == "" {
		r.OutputScript = "fully-native"
	}
	if r.NumeralsFormat == "" {
		r.NumeralsFormat = "international"
	}
}

// Result is a successful translation.
type Result struct {
	TranslatedText     string `json:"translated_text"`
	RequestID          string `json:"request_id"`
	SourceLanguageCode string `json:"source_language_code"`
}

// Client talks to the Sarvam translation API. A single attempt is made per
// call; there is no retry policy at this layer or above it.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New returns a Client. The key may be empty; Translate reports
// ErrMissingAPIKey in that case without touching the network.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Translate performs one translation call.
func (c *Client) Translate(ctx context.Context, req Request) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	req.ApplyDefaults()

	payload, err := json.Marshal(struct {
		Request
		Model               string `json:"model"`
		EnablePreprocessing bool   `json:"enable_preprocessing"`
	}{Request: req, Model: "mayura:v1", EnablePreprocessing: false})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-subscription-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	var parsed struct {
		TranslatedText     string `json:"translated_text"`
		RequestID          string `json:"request_id"`
		SourceLanguageCode string `json:"source_language_code"`
		Error              struct {
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("unparseable response (%d): %.200s", resp.StatusCode, string(body)), Status: resp.StatusCode}
	}

	if parsed.TranslatedText == "" {
		msg := parsed.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("no translated_text in response (%d)", resp.StatusCode)
		}
		return nil, &UpstreamError{Message: msg, RequestID: parsed.Error.RequestID, Status: resp.StatusCode}
	}

	res := &Result{
		TranslatedText:     parsed.TranslatedText,
		RequestID:          parsed.RequestID,
		SourceLanguageCode: parsed.SourceLanguageCode,
	}
	if res.RequestID == "" {
		res.RequestID = "unknown"
	}
	if res.SourceLanguageCode == "" {
		res.SourceLanguageCode = "unknown"
	}
	return res, nil
}

// SetBaseURL overrides the API endpoint (tests).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }
