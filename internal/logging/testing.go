package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// PatchLogger replaces the package loggers with one that records entries at
// level and above, and restores the previous loggers when the test ends.
func PatchLogger(t testing.TB, level zapcore.LevelEnabler) *observer.ObservedLogs {
	t.Helper()

	origL, origS := L, S
	t.Cleanup(func() {
		L, S = origL, origS
	})

	core, logs := observer.New(level)
	Use(zap.New(core))
	return logs
}
