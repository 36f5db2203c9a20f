package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"voxdub/internal/domain"
	"voxdub/internal/domain/model"
	"voxdub/internal/pipeline"
	"voxdub/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), struct {
		Error errorBody `json:"error"`
	}{Error: errorBody{Kind: domain.KindOf(err), Message: err.Error()}})
}

// dubSubmitHandler accepts a multipart dubbing request and enqueues a job.
func dubSubmitHandler(submitter Submitter, maxUpload int64, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, fmt.Errorf("malformed multipart body: %w", domain.ErrInvalidArgument))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("video")
		if err != nil {
			writeError(w, fmt.Errorf("video file is required: %w", domain.ErrInvalidArgument))
			return
		}
		defer file.Close()

		opts := pipeline.SubmitOptions{
			TargetLanguage: r.FormValue("target_language"),
			SourceLanguage: r.FormValue("source_language"),
			Provider:       r.FormValue("tts_provider"),
			VoiceID:        r.FormValue("voice_id"),
			Emotion:        r.FormValue("emotion"),
			Streaming:      strings.EqualFold(r.FormValue("streaming"), "true"),
		}

		jobID, err := submitter.Submit(ctx, file, header.Filename, header.Size, opts)
		if err != nil {
			writeError(w, err)
			return
		}

		log.Info().Str("job_id", jobID).Str("filename", header.Filename).Msg("dub request accepted")
		writeJSON(w, http.StatusAccepted, struct {
			JobID       string `json:"job_id"`
			StatusURL   string `json:"status_url"`
			DownloadURL string `json:"download_url"`
		}{
			JobID:       jobID,
			StatusURL:   "/api/status/" + jobID,
			DownloadURL: "/api/download/" + jobID,
		})
	}
}

// statusHandler serves the poll snapshot of one job.
func statusHandler(dubUC *usecase.DubbingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := dubUC.Status(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// downloadHandler streams the finished video.
func downloadHandler(dubUC *usecase.DubbingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, name, err := dubUC.Download(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set("Content-Type", "video/mp4")
		http.ServeFile(w, r, path)
	}
}

func cancelHandler(dubUC *usecase.DubbingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if err := dubUC.Cancel(r.Context(), jobID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, struct {
			JobID  string `json:"job_id"`
			Status string `json:"status"`
		}{JobID: jobID, Status: "canceling"})
	}
}

func jobsListHandler(dubUC *usecase.DubbingUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := dubUC.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.Job `json:"data"`
		}{Data: jobs})
	}
}

func languagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Languages []model.Language `json:"languages"`
		}{Languages: model.SupportedLanguages})
	}
}

func healthHandler(providerUC *usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descriptors, def := providerUC.Describe(r.Context())
		writeJSON(w, http.StatusOK, struct {
			Status    string                     `json:"status"`
			Default   string                     `json:"default_provider"`
			Providers []model.ProviderDescriptor `json:"providers"`
		}{Status: "ok", Default: def, Providers: descriptors})
	}
}

func providersHandler(providerUC *usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descriptors, def := providerUC.Describe(r.Context())
		writeJSON(w, http.StatusOK, struct {
			Providers []model.ProviderDescriptor `json:"providers"`
			Default   string                     `json:"default"`
		}{Providers: descriptors, Default: def})
	}
}

func setProviderHandler(providerUC *usecase.ProviderUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Provider string `json:"provider"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("malformed request body: %w", domain.ErrInvalidArgument))
			return
		}
		if err := providerUC.SetDefault(r.Context(), req.Provider); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Default string `json:"default"`
		}{Default: req.Provider})
	}
}

// voiceCreateHandler registers a reference voice from a multipart upload.
func voiceCreateHandler(voiceUC *usecase.VoiceUseCase, voiceDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, fmt.Errorf("malformed multipart body: %w", domain.ErrInvalidArgument))
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("audio")
		if err != nil {
			writeError(w, fmt.Errorf("audio file is required: %w", domain.ErrInvalidArgument))
			return
		}
		defer file.Close()

		if err := os.MkdirAll(voiceDir, 0o755); err != nil {
			writeError(w, fmt.Errorf("store reference audio: %w", err))
			return
		}
		dst, err := os.CreateTemp(voiceDir, "voice-*"+filepath.Ext(header.Filename))
		if err != nil {
			writeError(w, fmt.Errorf("store reference audio: %w", err))
			return
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			os.Remove(dst.Name())
			writeError(w, fmt.Errorf("store reference audio: %w", err))
			return
		}
		dst.Close()

		voice, err := voiceUC.Register(r.Context(), &model.ReferenceVoice{
			VoiceID:    r.FormValue("voice_id"),
			Provider:   r.FormValue("provider"),
			AudioPath:  dst.Name(),
			Transcript: r.FormValue("transcript"),
		})
		if err != nil {
			os.Remove(dst.Name())
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, voice)
	}
}

func voicesListHandler(voiceUC *usecase.VoiceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		voices, err := voiceUC.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Data []*model.ReferenceVoice `json:"data"`
		}{Data: voices})
	}
}

func voiceDeleteHandler(voiceUC *usecase.VoiceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := voiceUC.Delete(r.Context(), chi.URLParam(r, "voiceID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
