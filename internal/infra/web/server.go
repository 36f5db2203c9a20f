// Package web exposes the public dubbing API.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voxdub/internal/domain"
	"voxdub/internal/pipeline"
	"voxdub/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Submitter admits one dubbing request and returns the new job id.
type Submitter interface {
	Submit(ctx context.Context, src io.Reader, filename string, size int64, opts pipeline.SubmitOptions) (string, error)
}

type Server struct {
	dubUC      *usecase.DubbingUseCase
	voiceUC    *usecase.VoiceUseCase
	providerUC *usecase.ProviderUseCase
	submitter  Submitter

	maxUpload int64 // bytes
	voiceDir  string

	http *http.Server
	log  *zerolog.Logger
}

func NewServer(
	dubUC *usecase.DubbingUseCase,
	voiceUC *usecase.VoiceUseCase,
	providerUC *usecase.ProviderUseCase,
	submitter Submitter,
	maxUploadMB int64,
	voiceDir string,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		dubUC:      dubUC,
		voiceUC:    voiceUC,
		providerUC: providerUC,
		submitter:  submitter,
		maxUpload:  maxUploadMB * 1024 * 1024,
		voiceDir:   voiceDir,
		log:        &webLog,
	}
}

// Router builds the public route table.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/dub", dubSubmitHandler(s.submitter, s.maxUpload, s.log))
		r.Get("/status/{jobID}", statusHandler(s.dubUC))
		r.Get("/download/{jobID}", downloadHandler(s.dubUC))
		r.Post("/cancel/{jobID}", cancelHandler(s.dubUC))
		r.Get("/jobs", jobsListHandler(s.dubUC))
		r.Get("/languages", languagesHandler())
		r.Get("/health", healthHandler(s.providerUC))

		r.Route("/tts", func(r chi.Router) {
			r.Get("/providers", providersHandler(s.providerUC))
			r.Post("/provider", setProviderHandler(s.providerUC))
			r.Post("/voices", voiceCreateHandler(s.voiceUC, s.voiceDir))
			r.Get("/voices", voicesListHandler(s.voiceUC))
			r.Delete("/voices/{voiceID}", voiceDeleteHandler(s.voiceUC))
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start blocks serving the API until the listener fails or Shutdown runs.
func (s *Server) Start(port int) error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}
	s.log.Info().Int("port", port).Msg("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// statusOf maps a domain error to its HTTP status.
func statusOf(err error) int {
	if errors.Is(err, domain.ErrJobTerminal) {
		return http.StatusConflict
	}
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindCapabilityMismatch:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindNotReady:
		return http.StatusConflict
	case domain.KindGone:
		return http.StatusGone
	case domain.KindProviderUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
