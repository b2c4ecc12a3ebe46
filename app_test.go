package tgscreenshots

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeUpdates records Start and Stop calls.
type fakeUpdates struct {
	mu             sync.Mutex
	started, stops int
}

func (f *fakeUpdates) Start(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
}

func (f *fakeUpdates) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

// runApp starts app in the background and returns a stop function that
// cancels it and waits for Run to return.
func runApp(t *testing.T, app *App) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
}

// waitForMessages polls the fake client until it has n messages.
func waitForMessages(t *testing.T, client *fakeClient, n int) []sentMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if msgs := client.messages(); len(msgs) >= n {
			return msgs
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("got %d messages, want %d", len(client.messages()), n)
	return nil
}

func TestApp_DegradedWithoutChatID(t *testing.T) {
	// given
	captureLog(t)
	cfg := testConfig(t.TempDir())
	cfg.ChatID = ""
	writeFile(t, filepath.Join(cfg.Directory, "a.png"), "a")
	client := newFakeClient()
	updates := &fakeUpdates{}

	// when
	stop := runApp(t, NewApp(cfg, openTestLedger(t), client, updates, nil))
	time.Sleep(100 * time.Millisecond)
	err := stop()

	// then
	if err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
	if len(client.messages()) != 0 {
		t.Error("nothing may be sent without a chat id")
	}
	if updates.started != 1 || updates.stops != 1 {
		t.Errorf("updates started %d stopped %d, want 1 and 1", updates.started, updates.stops)
	}
}

func TestApp_ReconcilesThenWatches(t *testing.T) {
	// given: one file already on disk
	captureLog(t)
	cfg := testConfig(t.TempDir())
	old := writeFile(t, filepath.Join(cfg.Directory, "old.png"), "old")
	client := newFakeClient()
	stop := runApp(t, NewApp(cfg, openTestLedger(t), client, nil, nil))
	defer stop()

	// when: the existing file is sent, then a new one appears
	msgs := waitForMessages(t, client, 1)
	if msgs[0].Path != old {
		t.Fatalf("first message = %s, want %s", msgs[0].Path, old)
	}
	fresh := writeFile(t, filepath.Join(cfg.Directory, "new.png"), "new")

	// then
	msgs = waitForMessages(t, client, 2)
	if msgs[1].Path != fresh {
		t.Errorf("second message = %s, want %s", msgs[1].Path, fresh)
	}
}

func TestApp_LiveDuplicateIsSkipped(t *testing.T) {
	captureLog(t)
	cfg := testConfig(t.TempDir())
	writeFile(t, filepath.Join(cfg.Directory, "a.png"), "same")
	client := newFakeClient()
	stop := runApp(t, NewApp(cfg, openTestLedger(t), client, nil, nil))
	defer stop()
	waitForMessages(t, client, 1)

	writeFile(t, filepath.Join(cfg.Directory, "copy.png"), "same")
	time.Sleep(300 * time.Millisecond)

	if n := len(client.messages()); n != 1 {
		t.Errorf("messages = %d, want 1 (same content)", n)
	}
}

func TestApp_NoInitialScan(t *testing.T) {
	// given
	captureLog(t)
	cfg := testConfig(t.TempDir())
	cfg.NoInitialScan = true
	writeFile(t, filepath.Join(cfg.Directory, "old.png"), "old")
	client := newFakeClient()
	stop := runApp(t, NewApp(cfg, openTestLedger(t), client, nil, nil))
	defer stop()

	// when
	time.Sleep(100 * time.Millisecond)
	fresh := writeFile(t, filepath.Join(cfg.Directory, "new.png"), "new")

	// then: only the live file goes out
	msgs := waitForMessages(t, client, 1)
	if msgs[0].Path != fresh {
		t.Errorf("message = %s, want %s", msgs[0].Path, fresh)
	}
	time.Sleep(100 * time.Millisecond)
	if n := len(client.messages()); n != 1 {
		t.Errorf("messages = %d, want 1", n)
	}
}

func TestApp_MissingDirectoryFails(t *testing.T) {
	captureLog(t)
	cfg := testConfig(filepath.Join(t.TempDir(), "absent"))

	err := NewApp(cfg, openTestLedger(t), newFakeClient(), nil, nil).Run(context.Background())

	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestApp_WarnsOnceWithoutTransportMode(t *testing.T) {
	// given
	buf := captureLog(t)
	cfg := testConfig(t.TempDir())
	cfg.SendAsPhoto = false
	cfg.SendAsDocument = false
	stop := runApp(t, NewApp(cfg, openTestLedger(t), newFakeClient(), nil, nil))

	// when
	time.Sleep(100 * time.Millisecond)
	stop()

	// then
	logMu.Lock()
	out := buf.String()
	logMu.Unlock()
	if n := strings.Count(out, Msg("no_modes")); n != 1 {
		t.Errorf("no_modes warning logged %d times, want 1:\n%s", n, out)
	}
}
