// Package logger builds the process-wide zap logger: human-readable
// console output plus a size-rotated JSON error log on disk.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how much is logged.
type Options struct {
	Dir         string // directory of errors.log
	Development bool   // debug level and development encoder on the console
}

// New returns a logger that writes every entry at Info (Debug in
// development) to stdout and entries at Warn and above to
// <Dir>/errors.log.  It also installs the logger as zap's global so
// packages can use zap.L() and zap.S().
func New(opts Options) (*zap.Logger, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "errors.log"),
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     30,
		Compress:   true,
	}

	consoleLevel := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	consoleEnc := zap.NewProductionEncoderConfig()
	if opts.Development {
		consoleLevel.SetLevel(zapcore.DebugLevel)
		consoleEnc = zap.NewDevelopmentEncoderConfig()
	}
	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(file), zapcore.WarnLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.AddSync(os.Stdout), consoleLevel),
	)
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
	return log, nil
}
