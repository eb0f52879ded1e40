package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/soufianos01/sanitizer-checker/internal/config"
)

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	cfg := config.LoggerConfig{Level: "info", Format: "json", ServiceName: "test"}
	Initialize(cfg, zapcore.Lock(zapcore.AddSync(discardWriter{})))
	first := GetLogger()
	Initialize(cfg, zapcore.Lock(zapcore.AddSync(discardWriter{})))
	second := GetLogger()
	if first != second {
		t.Fatalf("expected Initialize to be idempotent (sync.Once-guarded)")
	}
}

func TestGetLoggerFallsBackBeforeInitialize(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	logger := GetLogger()
	if logger == nil {
		t.Fatalf("expected a non-nil fallback logger before Initialize")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
