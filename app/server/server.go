package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"resumerag/app/api"
	"resumerag/app/middleware"
	"resumerag/app/service"
	"resumerag/config"
	"resumerag/loader"
	"resumerag/model"
	"resumerag/store"
)

var fiberConfig = fiber.Config{
	ErrorHandler: api.ErrorHandler,
}

type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	app     *fiber.App
	storage store.VectorStore
	svc     *service.Service
	watcher *loader.Watcher
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	storage, err := store.NewVectorStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder := model.NewEmbedder(cfg)
	explainer, err := model.NewExplainer(cfg)
	if err != nil {
		storage.Close()
		return nil, err
	}

	svc := service.New(storage, embedder, cfg)

	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		storage: storage,
		svc:     svc,
	}

	if cfg.SourceDir != "" {
		watcher, err := loader.NewWatcher(cfg, svc)
		if err != nil {
			storage.Close()
			return nil, err
		}
		s.watcher = watcher
	}

	s.app = s.buildApp(explainer)
	return s, nil
}

func (s *Server) buildApp(explainer model.Explainer) *fiber.App {
	var (
		app          = fiber.New(fiberConfig)
		checkHandler = api.NewCheckHandler()
		matchHandler = api.NewMatchHandler(s.svc, explainer, os.TempDir(), s.cfg.RequestTimeout)
		check        = app.Group("/check")
		apiv1        = app.Group("/api/v1")
	)

	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1.Post("/ingest", matchHandler.HandleIngest)
	apiv1.Post("/resumes", matchHandler.HandleUploadResume)
	apiv1.Post("/search", matchHandler.HandleSearch)
	apiv1.Post("/match", matchHandler.HandleMatch)

	if s.cfg.FrontendDir != "" {
		app.Use(middleware.PlugStatic("/"))
		app.Static("/", s.cfg.FrontendDir)
	}

	return app
}

// Run starts the drop-directory watcher (when configured) and serves
// HTTP until Stop is called or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	if s.watcher != nil {
		go s.watcher.Run(ctx)
	}

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr, "store", s.cfg.StoreBackend)
	return s.app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if err := s.app.Shutdown(); err != nil {
		s.logger.Error("shutdown http server", "error", err)
	}
	if err := s.storage.Close(); err != nil {
		s.logger.Error("close vector store", "error", err)
	}
	s.logger.Info("server stopped")
}
