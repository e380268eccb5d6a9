package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	cases := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"debug enables debug level", true, true},
		{"production logs info and above", false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewLogger(tc.debug)
			if err != nil {
				t.Fatalf("NewLogger(%v): %v", tc.debug, err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tc.wantDebug {
				t.Errorf("debug level enabled = %v, want %v", got, tc.wantDebug)
			}
			if !logger.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info level must always be enabled")
			}
		})
	}
}
