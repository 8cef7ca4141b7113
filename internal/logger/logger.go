// Package logger builds the zerolog logger shared by every component.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config represents logger configuration.
type Config struct {
	Level      string // "debug", "info", "warn", "error"
	File       string // rotated JSON log file; empty logs to the console only
	MaxSizeMB  int
	MaxBackups int
	JSON       bool // JSON on the console instead of colored text
}

// New builds a logger writing to out (stderr when nil) and, if cfg.File is
// set, to a rotated file. The returned closer releases the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	if out == nil {
		out = os.Stderr
	}
	level := ParseLevel(cfg.Level)

	var console io.Writer = out
	if !cfg.JSON {
		cw := zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
		}
		if level == zerolog.DebugLevel {
			cw.PartsOrder = []string{"time", "level", "message", "caller"}
			cw.FormatCaller = func(i any) string {
				s, _ := i.(string)
				return "(" + s + ")"
			}
		}
		console = cw
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), nil, err
		}
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		closer = rotated
		writer = zerolog.MultiLevelWriter(console, rotated)
	}

	ctx := zerolog.New(writer).Level(level).With().Timestamp()
	if level == zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), closer, nil
}

// Init builds the logger with New and installs it as the global logger.
func Init(cfg Config, out io.Writer) (io.Closer, error) {
	l, closer, err := New(cfg, out)
	if err != nil {
		return nil, err
	}
	zerolog.CallerMarshalFunc = shortCaller
	zerolog.DefaultContextLogger = &l
	zlog.Logger = l
	return closer, nil
}

// ParseLevel parses the log level string. Unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// shortCaller keeps the parent directory and file name.
func shortCaller(_ uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
