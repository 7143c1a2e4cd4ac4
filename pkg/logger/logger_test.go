package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogger_NoopBeforeInit(t *testing.T) {
	Close()
	Info("dropped %d", 1)
	if GetWriter() != io.Discard {
		t.Error("expected io.Discard before Init")
	}
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Close()

	Info("hello %s", "world")
	Debug("detail")
	Warn("careful")
	Error("broken")
	WithFields(map[string]interface{}{"step": "pin"}, "step done")

	out := buf.String()
	for _, want := range []string{"hello world", "level=debug", "level=warning", "level=error", "step=pin"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInit_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := Init(path); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Info("to file")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("log file = %q", data)
	}
}

func TestInit_BadPath(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "run.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	defer Close()

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Info("quiet")
	Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Error("warn should pass at warn level")
	}

	if err := SetLevel("chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	InitWriter(&first)
	defer Close()

	SetOutput(&second)
	Info("moved")
	if first.Len() != 0 || !strings.Contains(second.String(), "moved") {
		t.Errorf("first=%q second=%q", first.String(), second.String())
	}
}
