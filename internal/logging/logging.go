// Package logging builds the process logger: a logr.Logger backed by zap.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the log level and encoding.
type Options struct {
	Level  string // debug, info, warn or error
	Format string // auto, console or json

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a logger. The returned function flushes buffered entries and
// should be called before the process exits.
//
// With Format "auto", a terminal gets human-readable console output and
// anything else gets JSON.
func New(opts Options) (logr.Logger, func(), error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(opts.Level); err != nil {
			return logr.Discard(), nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	encoder, err := newEncoder(opts.Format, out)
	if err != nil {
		return logr.Discard(), nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), zap.NewAtomicLevelAt(level))
	zl := zap.New(core, zap.AddCaller())

	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

func newEncoder(format string, out io.Writer) (zapcore.Encoder, error) {
	switch format {
	case "", "auto":
		if isTerminal(out) {
			return consoleEncoder(), nil
		}
		return jsonEncoder(), nil
	case "console":
		return consoleEncoder(), nil
	case "json":
		return jsonEncoder(), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return zapcore.NewConsoleEncoder(cfg)
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
