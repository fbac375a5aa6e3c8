// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup sets the level and format ("text" or "json") of the standard logger.
func Setup(level, format string) error {
	return configure(log.StandardLogger(), os.Stdout, level, format)
}

func configure(l *log.Logger, out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	default:
		return fmt.Errorf("log format %q must be text or json", format)
	}
	l.SetOutput(out)
	l.SetLevel(lvl)
	return nil
}
