package tts

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
	"sync"
	"time"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SynthesisProvider = (*FishAudioProvider)(nil)

// fishLanguages maps our language codes onto the names the fish-audio
// server expects. Unknown codes fall back to english.
var fishLanguages = map[string]string{
	"en": "english",
	"zh": "chinese",
	"ja": "japanese",
}

// FishAudioProvider talks to a fish-audio TTS server over HTTP. It supports
// voice cloning from reference audio, inline emotion markers and streaming.
type FishAudioProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu     sync.RWMutex
	voices map[string]*model.ReferenceVoice

	log *zerolog.Logger
}

func NewFishAudioProvider(baseURL, apiKey string, timeout time.Duration, logger *zerolog.Logger) *FishAudioProvider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	fishLog := logger.With().Str("component", "FishAudioProvider").Logger()
	return &FishAudioProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		voices:  map[string]*model.ReferenceVoice{},
		log:     &fishLog,
	}
}

func (p *FishAudioProvider) Name() string { return "fish_audio" }

func (p *FishAudioProvider) Descriptor() model.ProviderDescriptor {
	return model.ProviderDescriptor{
		Name:        p.Name(),
		DisplayName: "Fish Audio",
		Capabilities: []model.Capability{
			model.CapabilityVoiceCloning,
			model.CapabilityEmotionMarkers,
			model.CapabilityStreaming,
		},
		RequiresAPIKey: true,
	}
}

// Probe checks credentials and server reachability.
func (p *FishAudioProvider) Probe(ctx context.Context) error {
	if p.apiKey == "" {
		return errors.New("api key not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	p.authorize(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check http %d", resp.StatusCode)
	}
	return nil
}

type fishSynthPayload struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	Streaming bool   `json:"streaming"`
	VoiceID   string `json:"voice_id,omitempty"`
	RefText   string `json:"reference_text,omitempty"`
}

func (p *FishAudioProvider) Synthesize(ctx context.Context, req adapter.SynthesisRequest) (string, error) {
	lang, ok := fishLanguages[req.Language]
	if !ok {
		lang = "english"
	}
	payload := fishSynthPayload{
		Text:      req.Text,
		Language:  lang,
		Streaming: req.Streaming,
		RefText:   req.ReferenceText,
	}
	if req.VoiceID != "" {
		p.mu.RLock()
		_, known := p.voices[req.VoiceID]
		p.mu.RUnlock()
		if !known {
			return "", fmt.Errorf("voice %q: %w", req.VoiceID, domain.ErrNotFound)
		}
		payload.VoiceID = req.VoiceID
	}

	var httpReq *http.Request
	var err error
	if req.ReferenceAudio != "" {
		// One-shot cloning ships the reference sample alongside the payload.
		fields := map[string]string{
			"text":     payload.Text,
			"language": payload.Language,
		}
		if payload.Streaming {
			fields["streaming"] = "true"
		}
		if payload.RefText != "" {
			fields["reference_text"] = payload.RefText
		}
		httpReq, err = p.multipartRequest(ctx, "/v1/tts", fields, "reference_audio", req.ReferenceAudio)
	} else {
		body, merr := json.Marshal(payload)
		if merr != nil {
			return "", merr
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/tts", bytes.NewReader(body))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return "", err
	}
	p.authorize(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("fish_audio http %d: %s", resp.StatusCode, msg)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(req.OutputPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	// Streaming responses arrive chunked; io.Copy drains either mode.
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return req.OutputPath, nil
}

func (p *FishAudioProvider) AddReferenceVoice(ctx context.Context, voice *model.ReferenceVoice) error {
	payload := map[string]string{"voice_id": voice.VoiceID}
	if voice.Transcript != "" {
		payload["text"] = voice.Transcript
	}
	httpReq, err := p.multipartRequest(ctx, "/v1/references/add", payload, "audio", voice.AudioPath)
	if err != nil {
		return err
	}
	p.authorize(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("add reference http %d", resp.StatusCode)
	}

	p.mu.Lock()
	p.voices[voice.VoiceID] = voice // same id overwrites
	p.mu.Unlock()
	p.log.Info().Str("voice_id", voice.VoiceID).Msg("reference voice registered")
	return nil
}

func (p *FishAudioProvider) ListReferenceVoices(ctx context.Context) ([]*model.ReferenceVoice, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*model.ReferenceVoice, 0, len(p.voices))
	for _, v := range p.voices {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (p *FishAudioProvider) DeleteReferenceVoice(ctx context.Context, voiceID string) error {
	p.mu.Lock()
	_, ok := p.voices[voiceID]
	if ok {
		delete(p.voices, voiceID)
	}
	p.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/v1/references/"+voiceID, nil)
	if err != nil {
		return err
	}
	p.authorize(httpReq)
	resp, err := p.client.Do(httpReq)
	if err != nil {
		// Local registration is gone; the server side expires on its own.
		p.log.Warn().Err(err).Str("voice_id", voiceID).Msg("remote reference delete failed")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		p.log.Warn().Int("status", resp.StatusCode).Str("voice_id", voiceID).Msg("remote reference delete failed")
	}
	return nil
}

func (p *FishAudioProvider) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// multipartRequest builds a multipart POST carrying form fields plus one
// file part read from disk.
func (p *FishAudioProvider) multipartRequest(ctx context.Context, path string, fields map[string]string, fileField, filePath string) (*http.Request, error) {
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

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}
