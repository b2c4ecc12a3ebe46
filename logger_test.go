package tgscreenshots

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogLine_WritesPrefixAndMessage(t *testing.T) {
	buf := captureLog(t)

	LogOK("sent %s", "a.png")

	out := buf.String()
	if !containsStr(out, "OK") || !containsStr(out, "sent a.png") {
		t.Errorf("log output = %q", out)
	}
}

func TestInitLogFile_WritesToFile(t *testing.T) {
	captureLog(t)
	path := filepath.Join(t.TempDir(), "test.log")
	if err := InitLogFile(path); err != nil {
		t.Fatal(err)
	}

	LogInfo("hello from test")
	CloseLogFile()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(content)
	if !containsStr(s, "INFO") || !containsStr(s, "hello from test") {
		t.Errorf("log file = %q", s)
	}
	if containsStr(s, "\033[") {
		t.Errorf("log file should not contain ANSI codes: %q", s)
	}
}

func TestInitLogFile_BadPath(t *testing.T) {
	if err := InitLogFile(filepath.Join(t.TempDir(), "missing", "dir", "x.log")); err == nil {
		t.Error("expected error for a path in a missing directory")
	}
}

func TestLogFunctions_WithoutLogFile(t *testing.T) {
	captureLog(t)
	CloseLogFile()

	// Should not panic even without log file
	LogInfo("no file")
	LogWarn("no file")
	LogError("no file")
}

func TestLogDebug_OnlyWhenVerbose(t *testing.T) {
	buf := captureLog(t)
	orig := Verbose
	defer func() { Verbose = orig }()

	Verbose = false
	LogDebug("hidden")
	Verbose = true
	LogDebug("shown")

	out := buf.String()
	if containsStr(out, "hidden") {
		t.Error("debug line printed without Verbose")
	}
	if !containsStr(out, "shown") {
		t.Error("debug line missing with Verbose")
	}
}

func TestLogFunctions_QuietMode_SuppressesConsole(t *testing.T) {
	buf := captureLog(t)
	path := filepath.Join(t.TempDir(), "quiet.log")
	if err := InitLogFile(path); err != nil {
		t.Fatal(err)
	}
	defer CloseLogFile()

	t.Setenv("TGSCREENSHOTS_QUIET", "1")

	LogInfo("quiet mode")

	if buf.Len() != 0 {
		t.Errorf("expected no console output in quiet mode, got %q", buf.String())
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !containsStr(string(content), "quiet mode") {
		t.Error("log file should still contain message in quiet mode")
	}
}
