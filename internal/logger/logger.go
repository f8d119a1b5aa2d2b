package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	Level    string
	FilePath string
	RunID    string
	// Stdout replaces os.Stdout, mainly for tests.
	Stdout io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a JSON logger writing to stdout and, when FilePath is set, to that file too.
// The returned closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}

	var writers []io.Writer
	if opts.Stdout != nil {
		writers = append(writers, opts.Stdout)
	} else {
		writers = append(writers, os.Stdout)
	}

	var closer io.Closer = nopCloser{}
	if opts.FilePath != "" {
		file, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0664)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
		closer = file
	}

	multi := zerolog.MultiLevelWriter(writers...)
	ctx := zerolog.New(multi).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run_id", opts.RunID)
	}
	return ctx.Logger().Level(level), closer, nil
}
