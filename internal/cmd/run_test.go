package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tgscreenshots "github.com/QuentinWidlocher/tg-screenshots"
)

func TestRunCommand_AllFlagsExist(t *testing.T) {
	// given
	root := NewRootCommand()
	runCmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("find run command: %v", err)
	}

	// then: all expected flags should be registered
	flags := []struct {
		name     string
		defValue string
	}{
		{"directory", "."},
		{"chat-id", ""},
		{"no-initial-scan", "false"},
		{"thread-name-file", ""},
		{"send-as-photo", "true"},
		{"send-as-document", "false"},
		{"always-send", "false"},
		{"db", "db.sqlite"},
		{"workers", "4"},
		{"settle", "300ms"},
		{"log-file", ""},
		{"api-endpoint", ""},
		{"notify-local", "false"},
		{"notify-cmd", ""},
		{"slack-webhook", ""},
		{"discord-channel", ""},
	}

	for _, tc := range flags {
		f := runCmd.Flags().Lookup(tc.name)
		if f == nil {
			t.Errorf("--%s flag not found", tc.name)
			continue
		}
		if f.DefValue != tc.defValue {
			t.Errorf("--%s default = %q, want %q", tc.name, f.DefValue, tc.defValue)
		}
	}
}

func TestRunCommand_ShortAliases(t *testing.T) {
	// given
	root := NewRootCommand()
	runCmd, _, err := root.Find([]string{"run"})
	if err != nil {
		t.Fatalf("find run command: %v", err)
	}

	// then
	aliases := []struct {
		name      string
		shorthand string
	}{
		{"directory", "d"},
		{"chat-id", "c"},
	}

	for _, tc := range aliases {
		f := runCmd.Flags().Lookup(tc.name)
		if f == nil {
			t.Errorf("--%s flag not found", tc.name)
			continue
		}
		if f.Shorthand != tc.shorthand {
			t.Errorf("--%s shorthand = %q, want %q", tc.name, f.Shorthand, tc.shorthand)
		}
	}
}

func TestRunCommand_RejectsTwoDirectories(t *testing.T) {
	// given
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "a", "b"})

	// when
	err := cmd.Execute()

	// then
	if err == nil {
		t.Fatal("expected error for two directories, got nil")
	}
}

func TestRunCommand_MissingTokenExitsWithCode1(t *testing.T) {
	// given
	t.Setenv("BOT_TOKEN", "")
	t.Chdir(t.TempDir())
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "-c", "-1001", t.TempDir()})

	// when
	err := cmd.Execute()

	// then
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("err = %v, want ExitError code 1", err)
	}
}

func TestRunCommand_InvalidWorkers(t *testing.T) {
	// given
	t.Chdir(t.TempDir())
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"run", "--workers", "0", "--db", filepath.Join(t.TempDir(), "db.sqlite")})

	// when
	err := cmd.Execute()

	// then
	if err == nil {
		t.Fatal("expected error for --workers 0, got nil")
	}
}

func TestFlushTelemetry_LogsShutdownError(t *testing.T) {
	// given: log to a file only
	t.Setenv("TGSCREENSHOTS_QUIET", "1")
	logPath := filepath.Join(t.TempDir(), "run.log")
	if err := tgscreenshots.InitLogFile(logPath); err != nil {
		t.Fatal(err)
	}
	defer tgscreenshots.CloseLogFile()

	// when
	flushTelemetry(func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("shutdown should get a deadline")
		}
		return errors.New("otlp: connection refused")
	})
	tgscreenshots.CloseLogFile()

	// then
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "WARN telemetry shutdown: otlp: connection refused") {
		t.Errorf("log = %q, want the shutdown error", data)
	}
}
