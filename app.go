package tgscreenshots

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// eventBuffer bounds how many live events queue while reconciliation
// runs. The watcher blocks once it is full.
const eventBuffer = 256

// UpdateLoop is the bot's incoming-update side: the chat-id greeter.
type UpdateLoop interface {
	Start(ctx context.Context)
	Stop()
}

// App ties the watcher, the reconciliation pass and the greeter together.
// The ledger and client are opened by the caller and outlive Run.
type App struct {
	cfg     Config
	sender  *Sender
	watcher *Watcher
	updates UpdateLoop
}

// NewApp builds an App. updates and notifier may be nil.
func NewApp(cfg Config, ledger Ledger, client MessagingClient, updates UpdateLoop, notifier Notifier) *App {
	return &App{
		cfg:     cfg,
		sender:  NewSender(cfg, ledger, client, notifier),
		watcher: NewWatcher(cfg.Directory, cfg.Settle),
		updates: updates,
	}
}

// Run blocks until ctx is cancelled or the watcher fails. Without a chat
// id only the greeter runs, so the operator can find the id to use.
//
// The watcher is registered before reconciliation starts. Files created
// during the pass queue up and are handled after it, where the ledger
// lookup skips the ones the pass already sent.
func (a *App) Run(ctx context.Context) error {
	if a.updates != nil {
		a.updates.Start(ctx)
		defer a.updates.Stop()
	}

	if a.cfg.ChatID == "" {
		LogError("%s", Msg("missing_chat_id"))
		LogWarn("%s", Msg("degraded"))
		<-ctx.Done()
		LogInfo("%s", Msg("stopped"))
		return nil
	}

	a.printBanner()

	events := make(chan string, eventBuffer)
	ready := make(chan struct{}, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.watcher.Run(ctx, func(path string) {
			select {
			case events <- path:
			case <-ctx.Done():
			}
		}, ready)
	}()

	select {
	case <-ready:
	case err := <-watchErr:
		return err
	case <-ctx.Done():
		return nil
	}
	LogOK("%s", fmt.Sprintf(Msg("watching"), a.cfg.Directory))

	if a.cfg.NoInitialScan {
		LogInfo("%s", Msg("initial_skipped"))
	} else if _, err := a.sender.Reconcile(ctx); err != nil {
		LogError("%v", err)
	}

	for {
		select {
		case <-ctx.Done():
			LogInfo("%s", Msg("stopped"))
			return nil
		case err := <-watchErr:
			if err != nil {
				return err
			}
			return nil
		case path := <-events:
			a.handle(ctx, path)
		}
	}
}

// handle runs one live event to completion. A failure or panic here
// never stops the loop.
func (a *App) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			countFailed(ctx, "panic")
			LogError("%s", fmt.Sprintf(Msg("event_panic"), path, r))
		}
	}()

	_, err := a.sender.Send(context.WithoutCancel(ctx), path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		// Removed before it settled.
		LogDebug("%s vanished: %v", path, err)
	default:
		LogError("%s", fmt.Sprintf(Msg("file_failed"), path, a.cfg.ChatID, err))
	}
}

func (a *App) printBanner() {
	LogInfo("%s", fmt.Sprintf(Msg("chat_info"), a.cfg.ChatID))
	modes := a.cfg.Modes().List()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	if len(modes) == 0 {
		LogWarn("%s", Msg("no_modes"))
	} else {
		LogInfo("%s", fmt.Sprintf(Msg("modes_info"), strings.Join(names, ", ")))
	}
	LogInfo("%s", fmt.Sprintf(Msg("ledger_info"), a.cfg.DBPath))
	if a.cfg.ThreadNameFile != "" {
		LogInfo("%s", fmt.Sprintf(Msg("thread_file"), a.cfg.ThreadNameFile))
	}
}
