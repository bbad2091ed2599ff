package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger: readable text in development, JSON elsewhere.
func New(service, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"service": service, "env": env}).Info("logger initialized")
	return logger
}

// Discard is a logger for tests and tools that should stay quiet.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
