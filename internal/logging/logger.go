// Package logging builds the process logger: a console core mirrored into
// an append-only report file, with every entry passed through a redactor.
package logging

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 10
)

// Options configure New.
type Options struct {
	// File is the report log path. Empty disables the file sink.
	File string
	// Console receives the mirrored output. Defaults to stdout.
	Console io.Writer
	Level   zapcore.Level
	// MaxSizeMB is the size at which lumberjack starts a new file.
	MaxSizeMB  int
	MaxBackups int
}

// New builds the logger. The returned close func flushes and closes the file sink.
func New(opts Options, r *redact.Redactor) (*zap.Logger, func(), error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encCfg)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(console), opts.Level),
	}

	closeFn := func() {}
	if opts.File != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultMaxSizeMB
		}
		maxBackups := opts.MaxBackups
		if maxBackups <= 0 {
			maxBackups = defaultMaxBackups
		}

		// lumberjack opens lazily; touch the file now so a bad path is reported at startup.
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open log file %s", opts.File)
		}
		_ = f.Close()

		sink := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(sink), opts.Level))
		closeFn = func() { _ = sink.Close() }
	}

	core := NewRedactingCore(zapcore.NewTee(cores...), r)
	logger := zap.New(core)

	return logger, func() {
		_ = logger.Sync()
		closeFn()
	}, nil
}

// Lines writes each report line as its own entry.
func Lines(l *zap.Logger, lines []string) {
	for _, line := range lines {
		l.Info(line)
	}
}
