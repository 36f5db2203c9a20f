// Package speech holds the HTTP adapters for the model-backed collaborators:
// whisper speech recognition, NLLB translation, and wav2lip lip-sync. Each
// treats its backend as a slow, failing black box behind a narrow contract.
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
	"os"
	"path/filepath"
	"time"

	"voxdub/internal/domain/ports/adapter"
)

var _ adapter.Transcriber = (*WhisperClient)(nil)

// WhisperClient calls a whisper-server transcription endpoint.
type WhisperClient struct {
	baseURL string
	client  *http.Client
}

func NewWhisperClient(baseURL string, timeout time.Duration) (*WhisperClient, error) {
	if baseURL == "" {
		return nil, errors.New("whisper url empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WhisperClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (w *WhisperClient) Transcribe(ctx context.Context, audioPath, languageHint string) (adapter.Transcription, error) {
	fields := map[string]string{}
	if languageHint != "" && languageHint != "auto" {
		fields["language"] = languageHint
	}
	req, err := multipartFileRequest(ctx, w.baseURL+"/transcribe", fields, "audio", audioPath)
	if err != nil {
		return adapter.Transcription{}, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return adapter.Transcription{}, fmt.Errorf("whisper: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return adapter.Transcription{}, fmt.Errorf("whisper http %d", resp.StatusCode)
	}

	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return adapter.Transcription{}, err
	}
	if payload.Text == "" {
		return adapter.Transcription{}, errors.New("whisper returned empty transcript")
	}
	return adapter.Transcription{Text: payload.Text, DetectedLanguage: payload.Language}, nil
}

// multipartFileRequest is shared by the adapters that upload a media file.
func multipartFileRequest(ctx context.Context, url string, fields map[string]string, fileField, filePath string) (*http.Request, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := w.CreateFormFile(fileField, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
