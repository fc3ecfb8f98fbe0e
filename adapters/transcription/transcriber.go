package transcription

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medtranslate/server/domain/repositories"
)

const (
	defaultAPIBaseURL = "https://openrouter.ai/api/v1"
	defaultModelID    = "google/gemini-2.5-flash"

	// Longest timeout of the outbound calls, reflecting audio payload size.
	transcribeTimeout = 60 * time.Second
)

// formatByExtension maps audio file extensions to provider format names.
// Unrecognized extensions default to webm.
var formatByExtension = map[string]string{
	".webm": "webm",
	".wav":  "wav",
	".mp3":  "mp3",
	".ogg":  "ogg",
	".m4a":  "m4a",
	".aac":  "aac",
	".flac": "flac",
}

// Config holds configuration for the transcriber.
type Config struct {
	APIKey     string
	APIBaseURL string
	ModelID    string
	HTTPClient *http.Client
}

// Transcriber transcribes stored audio through the provider's multimodal
// API. A single attempt, no retry: transcription is best-effort and must
// not stall the live relay path.
type Transcriber struct {
	apiKey     string
	apiBaseURL string
	modelID    string
	httpClient *http.Client
	audioStore repositories.AudioStore
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a new multimodal transcriber.
func NewTranscriber(config Config, audioStore repositories.AudioStore, logger *zap.Logger) *Transcriber {
	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	modelID := config.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: transcribeTimeout}
	}

	return &Transcriber{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		modelID:    modelID,
		httpClient: httpClient,
		audioStore: audioStore,
		logger:     logger,
	}
}

// Transcribe resolves the audio URL and runs one transcription attempt.
// Every failure mode collapses to ok == false.
func (t *Transcriber) Transcribe(ctx context.Context, audioURL string) (string, bool) {
	path, err := t.audioStore.Resolve(audioURL)
	if err != nil {
		t.logger.Error("Audio resource not found",
			zap.String("audioURL", audioURL),
			zap.Error(err))
		return "", false
	}

	audioBytes, err := os.ReadFile(path)
	if err != nil {
		t.logger.Error("Failed to read audio file",
			zap.String("path", path),
			zap.Error(err))
		return "", false
	}

	format, ok := formatByExtension[strings.ToLower(filepath.Ext(path))]
	if !ok {
		format = "webm"
	}

	body, err := json.Marshal(t.payload(audioBytes, format))
	if err != nil {
		t.logger.Error("Failed to marshal transcription payload", zap.Error(err))
		return "", false
	}

	transcription, err := t.request(ctx, body)
	if err != nil {
		t.logger.Error("Transcription failed", zap.Error(err))
		return "", false
	}

	t.logger.Info("Transcription successful",
		zap.String("audioURL", audioURL),
		zap.Int("length", len(transcription)))
	return transcription, true
}

type multimodalContent struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type multimodalMessage struct {
	Role    string              `json:"role"`
	Content []multimodalContent `json:"content"`
}

func (t *Transcriber) payload(audioBytes []byte, format string) map[string]interface{} {
	return map[string]interface{}{
		"model": t.modelID,
		"messages": []multimodalMessage{
			{
				Role: "user",
				Content: []multimodalContent{
					{
						Type: "text",
						Text: "Transcribe this audio message exactly as spoken. Return only the transcription, no additional text.",
					},
					{
						Type: "input_audio",
						InputAudio: &inputAudio{
							Data:   base64.StdEncoding.EncodeToString(audioBytes),
							Format: format,
						},
					},
				},
			},
		},
		"temperature": 0.1,
		"max_tokens":  1000,
	}
}

func (t *Transcriber) request(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.apiBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", "https://medtranslate.app")
	httpReq.Header.Set("X-Title", "MedTranslate")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transport failure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var cr struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}

	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}
