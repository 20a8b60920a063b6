package crashreport

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gotest.tools/v3/assert"

	"github.com/infrahq/trustlist/internal/logging"
)

func TestRecover_LogsAndContinues(t *testing.T) {
	logs := logging.PatchLogger(t, zap.NewAtomicLevelAt(zapcore.ErrorLevel))

	func() {
		defer Recover(NewHub("test"), "refresh de")
		panic("boom")
	}()

	entries := logs.All()
	assert.Equal(t, len(entries), 1)
	assert.Equal(t, entries[0].Message, "refresh de panic: boom")
}

func TestWithoutClient_IsNoop(t *testing.T) {
	assert.NilError(t, Init("", "dev"))
	CaptureError(NewHub("test"), errors.New("failed"), map[string]string{"issuer": "de"})
	CaptureError(nil, errors.New("failed"), nil)
}
