package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := os.WriteFile(path, []byte("riff-data"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestWhisperTranscribe(t *testing.T) {
	var gotLanguage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("path = %q, want /transcribe", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotLanguage = r.FormValue("language")
		if _, _, err := r.FormFile("audio"); err != nil {
			t.Errorf("audio part missing: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello world", "language": "en"})
	}))
	defer srv.Close()

	client, err := NewWhisperClient(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	tr, err := client.Transcribe(context.Background(), writeAudio(t), "auto")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if tr.Text != "hello world" || tr.DetectedLanguage != "en" {
		t.Errorf("transcription = %+v", tr)
	}
	if gotLanguage != "" {
		t.Errorf("auto hint forwarded as %q, want omitted", gotLanguage)
	}

	if _, err := client.Transcribe(context.Background(), writeAudio(t), "de"); err != nil {
		t.Fatalf("transcribe with hint: %v", err)
	}
	if gotLanguage != "de" {
		t.Errorf("hint = %q, want de", gotLanguage)
	}
}

func TestWhisperEmptyTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "", "language": "en"})
	}))
	defer srv.Close()

	client, _ := NewWhisperClient(srv.URL, time.Minute)
	if _, err := client.Transcribe(context.Background(), writeAudio(t), "auto"); err == nil {
		t.Error("expected error for empty transcript")
	}
}

func TestNLLBTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text   string `json:"text"`
			Source string `json:"source_language"`
			Target string `json:"target_language"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Source != "en" || req.Target != "es" {
			t.Errorf("languages = %s -> %s", req.Source, req.Target)
		}
		json.NewEncoder(w).Encode(map[string]string{"translated_text": "hola mundo"})
	}))
	defer srv.Close()

	client, err := NewNLLBClient(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.Translate(context.Background(), "hello world", "en", "es")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "hola mundo" {
		t.Errorf("translation = %q", out)
	}
}

func TestNLLBSameLanguageShortCircuit(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client, _ := NewNLLBClient(srv.URL, time.Minute)
	out, err := client.Translate(context.Background(), "text", "es", "es")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "text" || called {
		t.Errorf("same-language call: out=%q called=%v", out, called)
	}
}

func TestWav2LipSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		for _, field := range []string{"video", "audio"} {
			if _, _, err := r.FormFile(field); err != nil {
				t.Errorf("%s part missing: %v", field, err)
			}
		}
		w.Write([]byte("synced-video"))
	}))
	defer srv.Close()

	client, err := NewWav2LipClient(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	dir := t.TempDir()
	video := filepath.Join(dir, "in.mp4")
	audio := filepath.Join(dir, "dub.wav")
	for _, p := range []string{video, audio} {
		if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
			t.Fatalf("write input: %v", err)
		}
	}

	out := filepath.Join(dir, "out.mp4")
	if err := client.SyncLips(context.Background(), video, audio, out); err != nil {
		t.Fatalf("sync: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(b) != "synced-video" {
		t.Errorf("output = %q", b)
	}
}

func TestCollaboratorServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	whisper, _ := NewWhisperClient(srv.URL, time.Minute)
	if _, err := whisper.Transcribe(context.Background(), writeAudio(t), "auto"); err == nil {
		t.Error("whisper: expected error on http 500")
	}

	nllb, _ := NewNLLBClient(srv.URL, time.Minute)
	if _, err := nllb.Translate(context.Background(), "x", "en", "es"); err == nil {
		t.Error("nllb: expected error on http 500")
	}
}
