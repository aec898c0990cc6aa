package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if filepath.Base(filepath.Dir(got)) != defaultLogDirName {
		t.Fatalf("unexpected log dir: %s", filepath.Dir(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesJSONToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Dir: tmpDir, Filename: "release.log"})
	log.Info("donation_status_changed")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"message":"donation_status_changed"`) {
		t.Fatalf("expected json message field, got=%s", text)
	}
	if !strings.Contains(text, `"app":"donatehub"`) {
		t.Fatalf("expected app field, got=%s", text)
	}
}

func TestNewReleaseHonorsWarnLevel(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Level: "warn", Dir: tmpDir, Filename: "warn.log"})
	log.Info("info_should_be_dropped")
	log.Warn("warn_should_be_kept")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "warn.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	text := string(content)
	if strings.Contains(text, "info_should_be_dropped") {
		t.Fatalf("info entry should be filtered: %s", text)
	}
	if !strings.Contains(text, "warn_should_be_kept") {
		t.Fatalf("warn entry missing: %s", text)
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestResolveLevel(t *testing.T) {
	cases := []struct {
		raw   string
		debug bool
		want  zapcore.Level
	}{
		{"", false, zapcore.InfoLevel},
		{"", true, zapcore.DebugLevel},
		{"ERROR", false, zapcore.ErrorLevel},
		{"warn", true, zapcore.DebugLevel},
		{"warn", false, zapcore.WarnLevel},
		{"bogus", false, zapcore.InfoLevel},
	}
	for _, tc := range cases {
		if got := resolveLevel(tc.raw, tc.debug); got != tc.want {
			t.Fatalf("resolveLevel(%q,%v)=%v want %v", tc.raw, tc.debug, got, tc.want)
		}
	}
}
