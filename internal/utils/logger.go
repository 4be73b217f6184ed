package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	backendWriter io.Writer
	webWriter     io.Writer
	logDir        string
)

// LogOptions configures the global logger
type LogOptions struct {
	// Level is one of debug, info, warn or error
	Level string
	// Format is json or text
	Format    string
	Component string
	// Dir holds the rotated log file. Empty means LOG_DIR or ./logs; "-"
	// disables file output.
	Dir string
	// Console defaults to stdout
	Console io.Writer
}

// InitLogger initializes the global logger.
// Logs go to stdout and to rotating backend.log/web.log files.
func InitLogger(opts LogOptions) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if opts.Component == "" {
		opts.Component = "backend"
	}

	logDir = opts.Dir
	if logDir == "" {
		logDir = os.Getenv("LOG_DIR")
	}
	if logDir == "" {
		if _, err := os.Stat("/app"); err == nil {
			logDir = "/app/logs"
		} else {
			logDir = "./logs"
		}
	}

	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	writers := []io.Writer{opts.Console}
	backendWriter, webWriter = nil, nil
	if logDir != "-" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Error().Err(err).Str("dir", logDir).Msg("Failed to create log directory, using stdout only")
		} else {
			backendWriter = createLogWriter(filepath.Join(logDir, "backend.log"))
			webWriter = createLogWriter(filepath.Join(logDir, "web.log"))
			writers = append(writers, backendWriter)
		}
	}

	log.Logger = newLogger(io.MultiWriter(writers...), opts.Format, opts.Component)

	log.Info().
		Str("level", level.String()).
		Str("format", opts.Format).
		Str("log_dir", logDir).
		Msg("Logger initialized")
}

func newLogger(w io.Writer, format, component string) zerolog.Logger {
	if format == "text" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// createLogWriter creates a rotating log file writer
func createLogWriter(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// GetWebLogger returns a logger for web/API requests that writes to web.log
func GetWebLogger() zerolog.Logger {
	if webWriter == nil {
		return log.Logger
	}
	return zerolog.New(io.MultiWriter(os.Stdout, webWriter)).With().Timestamp().Str("component", "web").Logger()
}

// Critical starts an error event flagged as an operator-visible lost update
func Critical() *zerolog.Event {
	return log.Error().Bool("critical", true)
}
