package ui

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger keeps a printf-style surface over zap so the rest of the program
// never imports zap directly.
type Logger struct {
	Debug bool
	s     *zap.SugaredLogger
}

// NewLogger logs to the console only. Debug messages are dropped unless
// debug is set.
func NewLogger(debug bool) *Logger {
	l, _ := NewFileLogger(debug, "")
	return l
}

// NewFileLogger tees console output into logFile when it is not empty. The
// file always receives debug level messages.
func NewFileLogger(debug bool, logFile string) (*Logger, error) {
	consoleLevel := zapcore.InfoLevel
	if debug {
		consoleLevel = zapcore.DebugLevel
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(ec)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return consoleLevel <= lvl && lvl < zapcore.ErrorLevel
		})),
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.ErrorLevel
		})),
	}

	var fileErr error
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.Lock(f),
				zapcore.DebugLevel,
			))
		} else {
			fileErr = fmt.Errorf("cannot open log file %s: %w", logFile, err)
		}
	}

	return FromZap(zap.New(zapcore.NewTee(cores...)), debug), fileErr
}

func FromZap(l *zap.Logger, debug bool) *Logger {
	return &Logger{Debug: debug, s: l.Sugar()}
}

func NewNopLogger() *Logger {
	return FromZap(zap.NewNop(), false)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s.Warnf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(format, args...)
}

func (l *Logger) Sync() {
	_ = l.s.Sync()
}
