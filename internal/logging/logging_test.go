package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/benbeisheim/chess-backend/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		cfg     config.LogConfig
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{config.LogConfig{Level: "info"}, zapcore.InfoLevel, zapcore.DebugLevel},
		{config.LogConfig{Level: "warn", Development: true}, zapcore.WarnLevel, zapcore.InfoLevel},
		{config.LogConfig{Level: "debug"}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}
	for _, tc := range tests {
		logger, err := New(tc.cfg)
		if err != nil {
			t.Fatalf("New(%+v): %v", tc.cfg, err)
		}
		core := logger.Core()
		if !core.Enabled(tc.enabled) {
			t.Errorf("%s: level %s should be enabled", tc.cfg.Level, tc.enabled)
		}
		if core.Enabled(tc.muted) {
			t.Errorf("%s: level %s should be muted", tc.cfg.Level, tc.muted)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "chatty"}); err == nil {
		t.Errorf("expected error for unknown level")
	}
}
