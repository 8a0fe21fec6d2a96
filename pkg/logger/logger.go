// Package logger configures the process-wide structured logger.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger configures logrus's standard logger and returns it for
// call sites that want a typed handle instead of the package-level
// functions. JSON formatting is used outside development so log
// aggregation can parse fields; development gets a human-readable
// text formatter with forced colors.
func InitLogger() *logrus.Logger {
	log := logrus.StandardLogger()

	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(os.Getenv("ENV"), "development") {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	log.SetOutput(os.Stdout)
	return log
}

// WithComponent returns an entry pre-tagged with a component field, the
// convention every package in this service uses to label its log lines.
func WithComponent(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
