package tgscreenshots

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func findCheck(t *testing.T, checks []DoctorCheck, name string) DoctorCheck {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no %s check in %v", name, checks)
	return DoctorCheck{}
}

func doctorConfig(t *testing.T) Config {
	cfg := testConfig(t.TempDir())
	cfg.BotToken = "123:abc"
	cfg.DBPath = filepath.Join(t.TempDir(), "db.sqlite")
	return cfg
}

func TestRunDoctor_AllGood(t *testing.T) {
	cfg := doctorConfig(t)
	writeFile(t, filepath.Join(cfg.Directory, "a.png"), "a")

	checks := RunDoctor(context.Background(), cfg, nil)

	if !DoctorPassed(checks) {
		t.Errorf("expected all required checks to pass: %+v", checks)
	}
	if d := findCheck(t, checks, "directory").Detail; !strings.Contains(d, "(1 images)") {
		t.Errorf("directory detail = %q", d)
	}
}

func TestRunDoctor_MissingToken(t *testing.T) {
	cfg := doctorConfig(t)
	cfg.BotToken = ""

	checks := RunDoctor(context.Background(), cfg, func(context.Context) (string, error) {
		t.Error("probe must not run without a token")
		return "", nil
	})

	if findCheck(t, checks, "bot_token").OK || DoctorPassed(checks) {
		t.Error("a missing token must fail the doctor")
	}
}

func TestRunDoctor_MissingChatIsOptional(t *testing.T) {
	cfg := doctorConfig(t)
	cfg.ChatID = ""

	checks := RunDoctor(context.Background(), cfg, nil)

	if findCheck(t, checks, "chat_id").OK {
		t.Error("chat_id check should report not set")
	}
	if !DoctorPassed(checks) {
		t.Error("chat_id is optional")
	}
}

func TestRunDoctor_MissingDirectory(t *testing.T) {
	cfg := doctorConfig(t)
	cfg.Directory = filepath.Join(cfg.Directory, "absent")

	checks := RunDoctor(context.Background(), cfg, nil)

	if findCheck(t, checks, "directory").OK || DoctorPassed(checks) {
		t.Error("a missing directory must fail the doctor")
	}
}

func TestRunDoctor_LedgerNotCreated(t *testing.T) {
	cfg := doctorConfig(t)

	checks := RunDoctor(context.Background(), cfg, nil)

	if !findCheck(t, checks, "ledger").OK {
		t.Error("a missing ledger is fine before the first run")
	}
	if _, err := os.Stat(cfg.DBPath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("doctor must not create the ledger, stat = %v", err)
	}
}

func TestRunDoctor_LedgerCounts(t *testing.T) {
	cfg := doctorConfig(t)
	l, err := OpenLedger(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	l.RecordScreenshot(context.Background(), 1, "h", time.Now())
	l.Close()

	check := findCheck(t, RunDoctor(context.Background(), cfg, nil), "ledger")

	if !check.OK || !strings.Contains(check.Detail, "1 messages, 0 threads") {
		t.Errorf("ledger check = %+v", check)
	}
}

func TestRunDoctor_Marker(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		wantOK  bool
		want    string
	}{
		{"named", ptr("Holidays\n"), true, `"Holidays"`},
		{"blank", ptr("  \n"), false, "is empty"},
		{"missing", nil, false, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := doctorConfig(t)
			cfg.ThreadNameFile = filepath.Join(t.TempDir(), "thread.txt")
			if tt.content != nil {
				writeFile(t, cfg.ThreadNameFile, *tt.content)
			}

			check := findCheck(t, RunDoctor(context.Background(), cfg, nil), "thread_name_file")

			if check.OK != tt.wantOK || !strings.Contains(check.Detail, tt.want) {
				t.Errorf("marker check = %+v, want ok=%v detail containing %q", check, tt.wantOK, tt.want)
			}
		})
	}
}

func TestRunDoctor_ProbeFailure(t *testing.T) {
	cfg := doctorConfig(t)

	checks := RunDoctor(context.Background(), cfg, func(context.Context) (string, error) {
		return "", errInjected
	})

	bot := findCheck(t, checks, "telegram")
	if bot.OK || bot.Detail != errInjected.Error() {
		t.Errorf("telegram check = %+v", bot)
	}
	if DoctorPassed(checks) {
		t.Error("a failed probe must fail the doctor")
	}
}

func TestRunDoctor_ProbeSuccess(t *testing.T) {
	cfg := doctorConfig(t)

	checks := RunDoctor(context.Background(), cfg, func(context.Context) (string, error) {
		return "shots_bot", nil
	})

	if bot := findCheck(t, checks, "telegram"); !bot.OK || bot.Detail != "@shots_bot" {
		t.Errorf("telegram check = %+v", bot)
	}
}

func TestFormatDoctorJSON(t *testing.T) {
	out, err := FormatDoctorJSON([]DoctorCheck{{Name: "bot_token", Required: true, Detail: "set", OK: true}})
	if err != nil {
		t.Fatal(err)
	}

	want := `[{"name":"bot_token","required":true,"detail":"set","ok":true}]`
	if out != want {
		t.Errorf("json = %s, want %s", out, want)
	}
}
