package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voicepaper/voicepaper/internal/config"
	"github.com/voicepaper/voicepaper/internal/core/ports"
	"github.com/voicepaper/voicepaper/internal/core/usecase"
	"github.com/voicepaper/voicepaper/internal/infrastructure/extractor/pdfsource"
	"github.com/voicepaper/voicepaper/internal/infrastructure/llm/gemini"
	"github.com/voicepaper/voicepaper/internal/infrastructure/queue/nats"
	"github.com/voicepaper/voicepaper/internal/infrastructure/recognition/streamhttp"
	"github.com/voicepaper/voicepaper/internal/infrastructure/repository/postgres"
	"github.com/voicepaper/voicepaper/internal/infrastructure/resilience"
	"github.com/voicepaper/voicepaper/internal/infrastructure/storage/localfs"
	"github.com/voicepaper/voicepaper/internal/infrastructure/summarizer/extractive"
	"github.com/voicepaper/voicepaper/internal/infrastructure/synth/googletts"
	"github.com/voicepaper/voicepaper/internal/speech/playback"
	"github.com/voicepaper/voicepaper/internal/speech/recognize"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	LibraryUC ports.DocumentLibrary
	SummaryUC ports.SummaryService
	NewsUC    ports.NewsService
	NewsProxy ports.NewsProxy

	Engine     *playback.Engine
	Recognizer *recognize.Recognizer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	geminiClient := gemini.New(cfg.GeminiURL, cfg.GeminiKey, cfg.GeminiModel, executor)

	var remoteSummarizer ports.Summarizer
	if geminiClient.Configured() {
		remoteSummarizer = gemini.NewSummarizer(geminiClient, cfg.SummaryChunkChars)
	}
	summaryUC := usecase.NewSummarizeUseCase(remoteSummarizer, extractive.New(), cfg.SummaryTimeout, logger)

	extractor := pdfsource.NewExtractor(storage, cfg.PageCap, logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, cfg.MaxUploadBytes)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, pdfsource.Classifier{}, summaryUC, logger)
	libraryUC := usecase.NewLibraryUseCase(repo, storage, logger)

	newsUC := usecase.NewNewsUseCase(gemini.NewNewsFetcher(geminiClient, logger))
	newsProxy := gemini.NewProxy(geminiClient)

	tts := googletts.New(cfg.TTSEndpoint)
	engine := playback.NewEngine(tts, tts, cfg.SpeechChunkChars, logger)
	engine.Init(ctx)

	recognizer := recognize.NewRecognizer(streamhttp.New(cfg.ASREndpoint), cfg.RecognitionLang, cfg.SettleDelay, logger)
	recognizer.Init(ctx)

	controls := wireControls(engine, recognizer, logger)
	recognizer.UseBuiltins(controls)

	if cfg.CommandPackPath != "" {
		cmds, err := recognize.LoadPack(cfg.CommandPackPath, controls)
		if err != nil {
			return nil, fmt.Errorf("load command pack: %w", err)
		}
		recognizer.RegisterCommands(cmds...)
	}

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Repo:  repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		LibraryUC: libraryUC,
		SummaryUC: summaryUC,
		NewsUC:    newsUC,
		NewsProxy: newsProxy,

		Engine:     engine,
		Recognizer: recognizer,

		closeFn: func() {
			recognizer.Dispose()
			engine.Dispose()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// wireControls binds the built-in voice commands to the playback engine.
// Navigation-style commands have no server-side surface to drive, so they
// land in the log where a frontend can subscribe to them later.
func wireControls(engine *playback.Engine, recognizer *recognize.Recognizer, logger *slog.Logger) recognize.Controls {
	return recognize.Controls{
		Navigate: func(target string) {
			logger.Info("voice_command", "action", "navigate", "target", target)
		},
		StartReading: func() {
			if engine.State() == playback.StatePaused {
				engine.Resume()
				return
			}
			if err := engine.SkipToStart(); err != nil {
				logger.Warn("start reading ignored", "error", err)
			}
		},
		PauseReading:  engine.Pause,
		ResumeReading: engine.Resume,
		StopReading:   engine.Stop,
		UploadDocument: func() {
			logger.Info("voice_command", "action", "upload_document")
		},
		ShowNews: func(category string) {
			logger.Info("voice_command", "action", "show_news", "category", category)
		},
		SwitchLanguage: func(tag string) {
			engine.SetLanguage(tag)
			// SetLanguage on the recognizer bounces the listen session and
			// sleeps through the settle delay; keep that off the dispatch path.
			go func() {
				if err := recognizer.SetLanguage(tag); err != nil {
					logger.Warn("switch recognition language failed", "tag", tag, "error", err)
				}
			}()
		},
		Help: func(descriptions []string) {
			logger.Info("voice_command", "action", "help", "available", len(descriptions))
		},
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
