package cli

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerOptions struct {
	format  string
	file    string
	verbose bool
	silent  bool
}

// newLogger builds the process logger: JSON or console encoding, info level
// unless verbose, written to stderr or a log file. A silent logger discards
// everything.
func newLogger(opts loggerOptions, stderr io.Writer) (*zap.Logger, func(), error) {
	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(opts.format)) {
	case "", "console":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (expected console|json)", opts.format)
	}
	if opts.silent {
		return zap.NewNop(), func() {}, nil
	}

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	sink := zapcore.AddSync(stderr)
	closeSink := func() {}
	if opts.file != "" {
		fileSink, closeFile, err := zap.Open(opts.file)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		sink = fileSink
		closeSink = closeFile
	}
	core := zapcore.NewCore(encoder, zapcore.Lock(sink), level)
	return zap.New(core, zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(stderr)))), closeSink, nil
}
