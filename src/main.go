package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/filehub/api/src/config"
	"github.com/filehub/api/src/server"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"environment":  cfg.Environment,
		"log_level":    cfg.LogLevel,
		"cors_origins": cfg.CORSOrigins,
		"backend":      cfg.Storage.Backend,
	}).Info("Starting FileHub API server")

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize server")
	}

	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("Server terminated")
	}
}
