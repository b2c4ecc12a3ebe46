package tgscreenshots

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
)

// DoctorCheck is the result of one environment check.
type DoctorCheck struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Detail   string `json:"detail"`
	OK       bool   `json:"ok"`
}

// BotProbe authenticates against the messaging platform and returns the
// bot's username.
type BotProbe func(ctx context.Context) (string, error)

// RunDoctor checks that cfg can run: token, chat, directory, marker file
// and ledger. probe is called only when a token is set and may be nil to
// skip the network check. The ledger is opened read-only in spirit: a
// missing database file is reported, not created.
func RunDoctor(ctx context.Context, cfg Config, probe BotProbe) []DoctorCheck {
	var checks []DoctorCheck

	token := DoctorCheck{Name: "bot_token", Required: true}
	if cfg.BotToken != "" {
		token.OK = true
		token.Detail = "set"
	} else {
		token.Detail = ErrMissingToken.Error()
	}
	checks = append(checks, token)

	chat := DoctorCheck{Name: "chat_id", Required: false}
	if cfg.ChatID != "" {
		chat.OK = true
		chat.Detail = cfg.ChatID
	} else {
		chat.Detail = "not set, the bot will only answer with chat ids"
	}
	checks = append(checks, chat)

	dir := DoctorCheck{Name: "directory", Required: true, Detail: cfg.Directory}
	if info, err := os.Stat(cfg.Directory); err != nil {
		dir.Detail = err.Error()
	} else if !info.IsDir() {
		dir.Detail = cfg.Directory + " is not a directory"
	} else {
		images, err := ListImages(cfg.Directory)
		if err != nil {
			dir.Detail = err.Error()
		} else {
			dir.OK = true
			dir.Detail = fmt.Sprintf("%s (%d images)", cfg.Directory, len(images))
		}
	}
	checks = append(checks, dir)

	if cfg.ThreadNameFile != "" {
		marker := DoctorCheck{Name: "thread_name_file", Required: false}
		switch res := ReadMarkerFile(cfg.ThreadNameFile).(type) {
		case MarkerFound:
			marker.OK = true
			marker.Detail = fmt.Sprintf("%q", res.Name)
		case MarkerAbsent:
			if res.Missing {
				marker.Detail = cfg.ThreadNameFile + " not found, sending to the main chat"
			} else {
				marker.Detail = cfg.ThreadNameFile + " is empty, sending to the main chat"
			}
		case MarkerError:
			marker.Detail = res.Err.Error()
		}
		checks = append(checks, marker)
	}

	checks = append(checks, checkLedger(ctx, cfg.DBPath))

	if probe != nil && cfg.BotToken != "" {
		bot := DoctorCheck{Name: "telegram", Required: true}
		if name, err := probe(ctx); err != nil {
			bot.Detail = err.Error()
		} else {
			bot.OK = true
			bot.Detail = "@" + name
		}
		checks = append(checks, bot)
	}

	return checks
}

func checkLedger(ctx context.Context, path string) DoctorCheck {
	check := DoctorCheck{Name: "ledger", Required: true}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		check.OK = true
		check.Detail = path + " (created on first run)"
		return check
	}
	l, err := OpenLedger(path)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	defer l.Close()
	shots, err := l.ListScreenshots(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	threads, err := l.ListThreads(ctx)
	if err != nil {
		check.Detail = err.Error()
		return check
	}
	check.OK = true
	check.Detail = fmt.Sprintf("%s (%d messages, %d threads)", path, len(shots), len(threads))
	return check
}

// DoctorPassed reports whether every required check succeeded.
func DoctorPassed(checks []DoctorCheck) bool {
	for _, c := range checks {
		if c.Required && !c.OK {
			return false
		}
	}
	return true
}

// FormatDoctorJSON returns the checks as a JSON array string.
func FormatDoctorJSON(checks []DoctorCheck) (string, error) {
	data, err := json.Marshal(checks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
