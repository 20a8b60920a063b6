package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { level.SetLevel(zapcore.InfoLevel) })

	assert.NilError(t, SetLevel("debug"))
	assert.Equal(t, level.Level(), zapcore.DebugLevel)

	assert.NilError(t, SetLevel(""))
	assert.Equal(t, level.Level(), zapcore.DebugLevel)

	err := SetLevel("loud")
	assert.ErrorContains(t, err, `invalid log level "loud"`)
	assert.Equal(t, level.Level(), zapcore.DebugLevel)
}

func TestInitialize_WritesToFile(t *testing.T) {
	origL, origS := L, S
	t.Cleanup(func() {
		L, S = origL, origS
		level.SetLevel(zapcore.InfoLevel)
	})

	filename := filepath.Join(t.TempDir(), "trustlist.log")
	assert.NilError(t, Initialize("warn", filename))

	Infof("not written %d", 1)
	Warnf("refresh failed for %s", "de")
	assert.NilError(t, L.Sync())

	b, err := os.ReadFile(filename)
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(b), "refresh failed for de"))
	assert.Assert(t, !strings.Contains(string(b), "not written"))
}

func TestPatchLogger(t *testing.T) {
	logs := PatchLogger(t, zap.NewAtomicLevelAt(zapcore.DebugLevel))

	Debugf("hello %s", "world")
	Errorf("boom")

	entries := logs.All()
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Message, "hello world")
	assert.Equal(t, entries[1].Level, zapcore.ErrorLevel)
}
