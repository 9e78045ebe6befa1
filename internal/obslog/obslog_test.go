package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARNING": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestSetSwapsGlobalLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	L().Info("pvp_move", zap.String("game_id", "g1"))
	if logs.Len() != 1 || logs.All()[0].Message != "pvp_move" {
		t.Fatalf("expected one pvp_move entry, got %d", logs.Len())
	}
	Set(nil)
	if L() == nil {
		t.Fatalf("Set(nil) must install a no-op logger")
	}
}

func TestBuildWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gamecore.log")
	l, err := Build(Options{Level: "info", Format: "json", ToFile: true, File: path})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	l.Info("pvp_timeout", zap.String("winner", "white"))
	_ = l.Sync()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"pvp_timeout"`) || !strings.Contains(string(raw), `"winner":"white"`) {
		t.Fatalf("unexpected log content: %s", raw)
	}
}
