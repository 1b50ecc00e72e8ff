package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/config"
	"github.com/filehub/api/src/middleware"
	"github.com/filehub/api/src/naming"
	"github.com/filehub/api/src/storage"
	"github.com/filehub/api/src/store"
)

// Server holds all dependencies for the API server.
type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	router *gin.Engine

	logStore  *store.LogStore
	userStore *store.UserStore
	provider  storage.Provider
}

// NewServer creates and initializes all server dependencies.
func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	if err := s.initStores(); err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	if err := s.initProvider(); err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	s.initRouter()
	s.SetupRoutes()

	return s, nil
}

// initStores opens the flat-document activity log and user directory.
func (s *Server) initStores() error {
	var err error

	s.logStore, err = store.NewLogStore(s.cfg.DataDir, s.logger)
	if err != nil {
		return err
	}

	s.userStore, err = store.NewUserStore(s.cfg.DataDir, s.logger)
	if err != nil {
		return err
	}
	return nil
}

// initProvider selects the storage backend from configuration.
func (s *Server) initProvider() error {
	codec, err := naming.ForScheme(s.cfg.Storage.Naming)
	if err != nil {
		return err
	}

	switch s.cfg.Storage.Backend {
	case config.BackendLocal:
		local, err := storage.NewLocalStore(s.cfg.Storage.BaseDir, codec, s.logger)
		if err != nil {
			return fmt.Errorf("local store init failed: %w", err)
		}
		s.provider = local
		s.logger.WithFields(logrus.Fields{
			"backend": "local",
			"path":    s.cfg.Storage.BaseDir,
			"naming":  s.cfg.Storage.Naming,
		}).Info("Storage backend initialized")

	case config.BackendS3:
		remote, err := storage.NewS3Store(context.Background(), s.cfg.Storage.S3, s.cfg.Storage.RootPrefix, codec, s.logger)
		if err != nil {
			return fmt.Errorf("s3 store init failed: %w", err)
		}
		s.provider = remote
		s.logger.WithFields(logrus.Fields{
			"backend": "s3",
			"bucket":  s.cfg.Storage.S3.Bucket,
			"naming":  s.cfg.Storage.Naming,
		}).Info("Storage backend initialized")

	default:
		return fmt.Errorf("unknown storage backend %q", s.cfg.Storage.Backend)
	}

	return nil
}

// initRouter creates and configures the Gin router.
func (s *Server) initRouter() {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.CORS(s.cfg.CORSOrigins, s.logger),
		middleware.AuditLogger(s.logger),
	)

	// OPTIONS preflight
	s.router.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

// Run starts the HTTP server and waits for a shutdown signal.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:           "0.0.0.0:" + s.cfg.Port,
		Handler:        s.router,
		ReadTimeout:    600 * time.Second,
		WriteTimeout:   600 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("Server forced to shutdown")
		return err
	}

	s.logger.Info("Server exited")
	return nil
}

// Router exposes the configured engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
