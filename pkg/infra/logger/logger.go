package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultLogDir = "logs"

type Config struct {
	Level string
	// File is relative to the logs directory. Empty logs to stdout only.
	File string
}

// NewLogger builds the process logger. The returned close func flushes the
// file writer and must run before exit.
func NewLogger(cfg Config) (*logrus.Logger, func(), error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return logger, func() {}, nil
	}

	logFile := filepath.Clean(filepath.Join(defaultLogDir, cfg.File))
	if !strings.HasPrefix(logFile, defaultLogDir+string(filepath.Separator)) {
		return nil, nil, fmt.Errorf("invalid log file path '%s': must be in %s directory", cfg.File, defaultLogDir)
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	asyncWriter, err := NewAsyncFileWriter(logFile, 32*1024)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	logger.SetOutput(asyncWriter)

	consoleHook := NewConsoleHook(os.Stdout, 1000)
	logger.AddHook(consoleHook)

	return logger, func() {
		consoleHook.Close()
		asyncWriter.Close()
	}, nil
}
