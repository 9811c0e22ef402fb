package common

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerOptions configures the zap-based logger used by the daemon.
type LoggerOptions struct {
	// LogFile is the path to the log file. If empty, logs go to stderr.
	LogFile string `yaml:"log_file"`

	// MaxSize is the size in megabytes at which the log file is rotated.
	MaxSize int `yaml:"max_size"`

	// MaxBackups is the maximum number of rotated files to keep.
	MaxBackups int `yaml:"max_backups"`

	// MaxAge is the maximum number of days to keep rotated files.
	MaxAge int `yaml:"max_age"`

	// Compress gzips rotated files.
	Compress bool `yaml:"compress"`

	// Debug enables debug level. Info otherwise.
	Debug bool `yaml:"debug"`

	// Console also writes to stderr when LogFile is set.
	Console bool `yaml:"console"`

	// Format is "json" (default) or "console".
	Format string `yaml:"format"`
}

// NewZapLogger creates a Logger backed by uber-go/zap with optional file rotation.
func NewZapLogger(opts LoggerOptions) Logger {
	var ws zapcore.WriteSyncer

	if opts.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		}
		if opts.Console {
			ws = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stderr), zapcore.AddSync(lj))
		} else {
			ws = zapcore.AddSync(lj)
		}
	} else {
		ws = zapcore.AddSync(os.Stderr)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if opts.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	level := zap.InfoLevel
	if opts.Debug {
		level = zap.DebugLevel
	}

	logger := zap.New(zapcore.NewCore(encoder, ws, level))
	return &zapAdapter{s: logger.Sugar()}
}

// zapAdapter adapts zap.SugaredLogger to our Logger interface.
type zapAdapter struct {
	s *zap.SugaredLogger
}

func (z *zapAdapter) Debug(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z *zapAdapter) Info(msg string, kv ...interface{})  { z.s.Infow(msg, kv...) }
func (z *zapAdapter) Warn(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
func (z *zapAdapter) Error(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }

// Sync flushes buffered entries when l was created by NewZapLogger.
func Sync(l Logger) error {
	if z, ok := l.(*zapAdapter); ok {
		return z.s.Sync()
	}
	return nil
}
