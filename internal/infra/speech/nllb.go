package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"voxdub/internal/domain/ports/adapter"
)

var _ adapter.Translator = (*NLLBClient)(nil)

// NLLBClient calls an NLLB translation server.
type NLLBClient struct {
	baseURL string
	client  *http.Client
}

func NewNLLBClient(baseURL string, timeout time.Duration) (*NLLBClient, error) {
	if baseURL == "" {
		return nil, errors.New("nllb url empty")
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &NLLBClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (n *NLLBClient) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error) {
	if sourceLanguage == targetLanguage {
		return text, nil
	}

	reqBody := struct {
		Text   string `json:"text"`
		Source string `json:"source_language"`
		Target string `json:"target_language"`
	}{Text: text, Source: sourceLanguage, Target: targetLanguage}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/translate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nllb: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nllb http %d", resp.StatusCode)
	}

	var payload struct {
		TranslatedText string `json:"translated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.TranslatedText == "" {
		return "", errors.New("nllb returned empty translation")
	}
	return payload.TranslatedText, nil
}
