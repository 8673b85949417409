package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a configured logger. Development gets human-readable output;
// everything else logs JSON.
func New(component, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	logger.WithFields(logrus.Fields{"component": component, "env": env}).Info("logger initialized")
	return logger
}
