// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"voxdub/internal/config"
	"voxdub/internal/domain/ports/repository"
	pg "voxdub/internal/infra/db/postgres"
	"voxdub/internal/infra/files"
	"voxdub/internal/infra/logging"
	"voxdub/internal/infra/media"
	"voxdub/internal/infra/metrics"
	red "voxdub/internal/infra/redis"
	"voxdub/internal/infra/sched"
	"voxdub/internal/infra/speech"
	"voxdub/internal/infra/store/memory"
	"voxdub/internal/infra/tts"
	"voxdub/internal/infra/web"
	"voxdub/internal/infra/worker"
	"voxdub/internal/pipeline"
	"voxdub/internal/usecase"

	"github.com/oklog/ulid/v2"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logging, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.TempDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("create storage dir")
		}
	}

	// ---- Job store ----
	var store repository.JobStore
	switch cfg.Store.Backend {
	case "redis":
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer client.Close()
		store = red.NewJobStore(client, cfg.Redis.TTL)
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		store = pg.NewJobStore(pool)
	default:
		store = memory.NewJobStore()
	}
	logger.Info().Str("backend", cfg.Store.Backend).Msg("job store ready")

	// ---- Providers ----
	fish := tts.NewFishAudioProvider(cfg.TTS.FishAudio.BaseURL, cfg.TTS.FishAudio.APIKey, cfg.TTS.FishAudio.Timeout, logger)
	coqui := tts.NewCoquiProvider(cfg.TTS.Coqui.Binary, logger)
	registry, err := tts.NewRegistry(cfg.TTS.DefaultProvider, logger, fish, coqui)
	if err != nil {
		logger.Fatal().Err(err).Msg("provider registry")
	}
	router := tts.NewRouter(registry, logger)

	// ---- Collaborators ----
	ffmpeg, err := media.NewFFmpeg(cfg.Collaborators.FFmpegBin, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("ffmpeg")
	}
	whisper, err := speech.NewWhisperClient(cfg.Collaborators.WhisperURL, cfg.Collaborators.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("whisper client")
	}
	nllb, err := speech.NewNLLBClient(cfg.Collaborators.NLLBURL, cfg.Collaborators.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("nllb client")
	}
	wav2lip, err := speech.NewWav2LipClient(cfg.Collaborators.Wav2LipURL, cfg.Collaborators.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("wav2lip client")
	}

	// ---- Pipeline ----
	lifecycle := files.NewManager(store, cfg.Storage.Retention, logger)
	pool := worker.NewPool(cfg.Workers.Limit, cfg.Workers.QueueSize, logger)
	pool.Start(ctx)
	defer pool.Stop()

	stages := pipeline.DefaultStages(ffmpeg, whisper, nllb, router, wav2lip, ffmpeg)
	orchestrator := pipeline.NewOrchestrator(
		store, lifecycle, pool, registry, stages,
		cfg.Storage.UploadDir, cfg.Storage.TempDir, cfg.Storage.OutputDir,
		cfg.Server.MaxUploadMB, logger,
	)

	// ---- Use cases ----
	dubUC := usecase.NewDubbingUseCase(store, lifecycle, orchestrator)
	voiceUC := usecase.NewVoiceUseCase(registry, func() string { return ulid.Make().String() })
	providerUC := usecase.NewProviderUseCase(registry)

	// ---- Background workers ----
	retention := sched.NewRetentionWorker(cfg.Storage.SweepEvery, lifecycle, logger)
	go func() { _ = retention.Run(ctx) }()
	availability := sched.NewAvailabilityWorker(cfg.TTS.ProbeEvery, registry, logger)
	go func() { _ = availability.Run(ctx) }()

	// ---- HTTP API ----
	voiceDir := filepath.Join(cfg.Storage.UploadDir, "voices")
	server := web.NewServer(dubUC, voiceUC, providerUC, orchestrator, cfg.Server.MaxUploadMB, voiceDir, logger)
	go func() {
		if err := server.Start(cfg.Server.Port); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownGrace)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
