// Package logging provides a shared logger and log utilities to be used in all internal packages.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	L *zap.Logger        = zap.NewNop()
	S *zap.SugaredLogger = L.Sugar()

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Initialize replaces L and S with a logger at levelName. Output goes to
// filename when it is set, otherwise to stderr: with a console encoder when
// attached to a terminal, or as JSON. Stdout is left to command output.
func Initialize(levelName, filename string) error {
	if err := SetLevel(levelName); err != nil {
		return err
	}

	var (
		encoder zapcore.Encoder
		writer  zapcore.WriteSyncer
	)

	switch {
	case filename != "":
		writer = fileWriter(filename)
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case term.IsTerminal(int(os.Stdin.Fd())):
		writer = zapcore.Lock(os.Stderr)
		encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			MessageKey: "message",

			LevelKey:    "level",
			EncodeLevel: zapcore.CapitalColorLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.ISO8601TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		})
	default:
		writer = zapcore.Lock(os.Stderr)
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	Use(zap.New(zapcore.NewCore(encoder, writer, level), zap.AddCaller()))
	return nil
}

// Use replaces the package loggers with logger.
func Use(logger *zap.Logger) {
	L = logger
	S = logger.Sugar()
}

// SetLevel changes the level of the logger created by Initialize.
func SetLevel(levelName string) error {
	if levelName == "" {
		return nil
	}

	var l zapcore.Level
	if err := l.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	level.SetLevel(l)
	return nil
}

func Debugf(format string, args ...interface{}) {
	S.WithOptions(zap.AddCallerSkip(1)).Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	S.WithOptions(zap.AddCallerSkip(1)).Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	S.WithOptions(zap.AddCallerSkip(1)).Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	S.WithOptions(zap.AddCallerSkip(1)).Errorf(format, args...)
}
