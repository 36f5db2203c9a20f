package speech

import (
	"bytes"
	"context"
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

var _ adapter.LipSyncer = (*Wav2LipClient)(nil)

// Wav2LipClient calls a wav2lip lip-sync server. The GAN inference is the
// slowest collaborator in the pipeline, so its timeout is its own.
type Wav2LipClient struct {
	baseURL string
	client  *http.Client
}

func NewWav2LipClient(baseURL string, timeout time.Duration) (*Wav2LipClient, error) {
	if baseURL == "" {
		return nil, errors.New("wav2lip url empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return &Wav2LipClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (l *Wav2LipClient) SyncLips(ctx context.Context, videoPath, audioPath, outputPath string) error {
	req, err := multipartTwoFileRequest(ctx, l.baseURL+"/sync", videoPath, audioPath)
	if err != nil {
		return err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("wav2lip: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wav2lip http %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write synced video: %w", err)
	}
	return nil
}

func multipartTwoFileRequest(ctx context.Context, url, videoPath, audioPath string) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, path := range map[string]string{"video": videoPath, "audio": audioPath} {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		part, err := w.CreateFormFile(field, filepath.Base(path))
		if err != nil {
			f.Close()
			return nil, err
		}
		if _, err := io.Copy(part, f); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()
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
