package tgscreenshots

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func containsStr(s, sub string) bool { return strings.Contains(s, sub) }

func ptr(s string) *string { return &s }

// sentMessage is one call the fake client received.
type sentMessage struct {
	Method   string // sendPhoto, sendDocument, copyMessage
	ChatID   string
	ThreadID int64
	Path     string
	Source   int64 // copied message id
}

// fakeClient is an in-memory MessagingClient. Errors can be injected per
// method; ids are allocated sequentially starting at 100.
type fakeClient struct {
	mu       sync.Mutex
	nextID   int64
	sent     []sentMessage
	topics   []string
	photoErr error
	docErr   error
	topicErr error
	copyErr  error
	onSend   func(sentMessage) // called outside the lock
}

func newFakeClient() *fakeClient { return &fakeClient{nextID: 100} }

func (f *fakeClient) record(m sentMessage, err error) (int64, error) {
	if f.onSend != nil {
		f.onSend(m)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	f.nextID++
	f.sent = append(f.sent, m)
	return f.nextID, nil
}

func (f *fakeClient) SendPhoto(_ context.Context, chatID string, threadID int64, path string) (int64, error) {
	return f.record(sentMessage{Method: "sendPhoto", ChatID: chatID, ThreadID: threadID, Path: path}, f.photoErr)
}

func (f *fakeClient) SendDocument(_ context.Context, chatID string, threadID int64, path string) (int64, error) {
	return f.record(sentMessage{Method: "sendDocument", ChatID: chatID, ThreadID: threadID, Path: path}, f.docErr)
}

func (f *fakeClient) CopyMessage(_ context.Context, chatID string, threadID int64, messageID int64) (int64, error) {
	return f.record(sentMessage{Method: "copyMessage", ChatID: chatID, ThreadID: threadID, Source: messageID}, f.copyErr)
}

func (f *fakeClient) CreateForumTopic(_ context.Context, _ string, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topicErr != nil {
		return 0, f.topicErr
	}
	f.topics = append(f.topics, name)
	return int64(1000 + len(f.topics)), nil
}

func (f *fakeClient) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func (f *fakeClient) topicCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

// failingLedger wraps a Ledger and fails RecordScreenshot.
type failingLedger struct {
	Ledger
	recordErr error
}

func (l *failingLedger) RecordScreenshot(context.Context, int64, string, time.Time) error {
	return l.recordErr
}

var errInjected = errors.New("injected failure")

// recordingNotifier keeps the alerts it received.
type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.titles)
}

func openTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// captureLog redirects log output to a buffer for the test's duration.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	logMu.Lock()
	prev := logOut
	logOut = buf
	logMu.Unlock()
	t.Cleanup(func() {
		logMu.Lock()
		logOut = prev
		logMu.Unlock()
	})
	return buf
}

func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Directory = dir
	cfg.ChatID = "-1001"
	cfg.Workers = 2
	cfg.Settle = 20 * time.Millisecond
	return cfg
}
