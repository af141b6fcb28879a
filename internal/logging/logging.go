package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// New builds a logger writing to w. format is "text" or "json"; level is one
// of debug, info, warn, error, fatal.
func New(level, format string, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	var handler log.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		handler = text.New(w)
	case "json":
		handler = json.New(w)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return &log.Logger{Handler: handler, Level: lvl}, nil
}

// Setup builds a stderr logger and installs it as the package level default
func Setup(level, format string) (*log.Logger, error) {
	logger, err := New(level, format, os.Stderr)
	if err != nil {
		return nil, err
	}
	log.SetHandler(logger.Handler)
	log.SetLevel(logger.Level)
	return logger, nil
}
