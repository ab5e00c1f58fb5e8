package observability

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerLevels(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range cases {
		log, err := NewLogger(in, false)
		if err != nil {
			t.Fatalf("NewLogger(%q): %v", in, err)
		}
		if !log.Core().Enabled(want) {
			t.Errorf("NewLogger(%q) should enable %v", in, want)
		}
		if want > zapcore.DebugLevel && log.Core().Enabled(want-1) {
			t.Errorf("NewLogger(%q) should not enable %v", in, want-1)
		}
	}
}
