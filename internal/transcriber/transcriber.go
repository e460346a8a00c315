// Package transcriber converts voice-note audio into text through an
// OpenAI-compatible transcription endpoint.
package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vbaranov/ledgerbot/internal/logging"
)

// DefaultBaseURL points at the Groq OpenAI-compatible API.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// WhisperClient calls the hosted Whisper transcription endpoint.
type WhisperClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     logging.Logger
}

// NewWhisperClient creates a client for the given model. An empty baseURL
// selects the Groq API.
func NewWhisperClient(apiKey, model, baseURL string, logger logging.Logger) (*WhisperClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("transcriber API key is not set")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &WhisperClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     logger,
	}, nil
}

// Transcribe uploads the audio as a multipart form and returns the
// recognized text.
func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = "voice.ogg"
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	if err := form.WriteField("model", w.model); err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}

	url := w.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("unparseable transcription response: %w", err)
	}

	text := strings.TrimSpace(parsed.Text)
	w.log.WithField(logging.FieldCount, len(audio)).Debug("Voice note transcribed")
	return text, nil
}
