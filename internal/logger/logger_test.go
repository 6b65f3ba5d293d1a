package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zap.InfoLevel,
		"debug": zap.DebugLevel,
		"warn":  zap.WarnLevel,
		"error": zap.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_WritesDailyFile(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	root := t.TempDir()
	log, err := New(root, "debug", false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debugw("probe", "k", "v")
	_ = log.Sync()

	name := filepath.Join(root, "logs", time.Now().Format("2006-01-02")+".log")
	if _, err := os.Stat(name); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !zap.L().Core().Enabled(zap.DebugLevel) {
		t.Fatal("global logger not replaced at debug level")
	}
}
