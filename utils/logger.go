package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the application logger.
var Log = logrus.New()

// ConfigureLogger sets level and format ("json" or "text").
func ConfigureLogger(level, format string) {
	Log.SetOutput(os.Stdout)
	if format == "text" {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		Log.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
