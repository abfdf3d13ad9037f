// Package bootstrap wires configuration into the application graph shared
// by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/reportaway/reportaway/internal/config"
	"github.com/reportaway/reportaway/internal/core/ports"
	"github.com/reportaway/reportaway/internal/core/usecase"
	"github.com/reportaway/reportaway/internal/infrastructure/encoder"
	"github.com/reportaway/reportaway/internal/infrastructure/llm/openai"
	"github.com/reportaway/reportaway/internal/infrastructure/queue/nats"
	"github.com/reportaway/reportaway/internal/infrastructure/repository/postgres"
	"github.com/reportaway/reportaway/internal/infrastructure/resilience"
	"github.com/reportaway/reportaway/internal/infrastructure/storage/minio"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	CaseUC    ports.CaseService
	UploadUC  ports.TicketUploader
	ChatUC    ports.CaseChat
	AnalyzeUC ports.CaseAnalyzer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	caseRepo := postgres.NewCaseRepository(db)
	if err := caseRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	ticketRepo := postgres.NewTicketRepository(db)
	chatRepo := postgres.NewChatRepository(db)

	storage, err := minio.New(minio.Config{
		Endpoint:   cfg.MinioEndpoint,
		AccessKey:  cfg.MinioAccessKey,
		SecretKey:  cfg.MinioSecretKey,
		Bucket:     cfg.MinioBucket,
		UseSSL:     cfg.MinioUseSSL,
		PublicRead: cfg.MinioPublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	modelClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIVisionModel, cfg.OpenAITextModel, openai.Options{
		ResilienceExecutor: executor,
	})
	extractor := openai.NewExtractor(modelClient)
	strategist := openai.NewStrategist(modelClient)
	chatModel := openai.NewChatModel(modelClient)
	fileStore := openai.NewFileStore(modelClient)

	docEncoder := encoder.New(storage, fileStore)

	caseUC := usecase.NewCaseUseCase(caseRepo, ticketRepo, queue)
	uploadUC := usecase.NewUploadTicketUseCase(caseRepo, ticketRepo, storage)
	chatUC := usecase.NewChatUseCase(caseRepo, chatRepo, chatModel)
	analyzeUC := usecase.NewAnalyzeCaseUseCase(caseRepo, ticketRepo, docEncoder, extractor, strategist, cfg.EncodeConcurrency)

	return &App{
		Config: cfg,
		Queue:  queue,

		CaseUC:    caseUC,
		UploadUC:  uploadUC,
		ChatUC:    chatUC,
		AnalyzeUC: analyzeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
