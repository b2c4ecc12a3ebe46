package tgscreenshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Outcome tells what Send did with a file.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeSkipped           // hash already in the ledger
	OutcomeResent            // hash known, recorded message copied again
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeResent:
		return "resent"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sender runs the check → deliver → record sequence shared by the
// reconciliation pass and the live watcher.
type Sender struct {
	cfg      Config
	ledger   Ledger
	client   MessagingClient
	threads  *ThreadResolver
	delivery *Deliverer
	notifier Notifier
	hashes   *keyLock
	now      func() time.Time
}

// NewSender wires the pipeline. notifier may be nil.
func NewSender(cfg Config, ledger Ledger, client MessagingClient, notifier Notifier) *Sender {
	if notifier == nil {
		notifier = &NopNotifier{}
	}
	return &Sender{
		cfg:      cfg,
		ledger:   ledger,
		client:   client,
		threads:  NewThreadResolver(ledger, client),
		delivery: NewDeliverer(client),
		notifier: notifier,
		hashes:   newKeyLock(),
		now:      time.Now,
	}
}

// Send handles one live file: it hashes path, looks the hash up in the
// ledger, and delivers and records the file only if it was never sent.
// With AlwaysSend, a known file is copied again from its recorded message.
func (s *Sender) Send(ctx context.Context, path string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "send", trace.WithAttributes(
		attribute.String("file.path", path),
	))
	defer span.End()

	hash, err := HashFile(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OutcomeFailed, err
	}
	span.SetAttributes(attribute.String("file.hash", hash))

	unlock := s.hashes.Lock(hash)
	defer unlock()

	existing, err := s.ledger.FindScreenshotByHash(ctx, hash)
	switch {
	case err == nil:
		if s.cfg.AlwaysSend {
			return s.resend(ctx, path, existing)
		}
		LogInfo("%s", fmt.Sprintf(Msg("already_sent"), path))
		countSkipped(ctx)
		return OutcomeSkipped, nil
	case !errors.Is(err, ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OutcomeFailed, fmt.Errorf("lookup %s: %w", path, err)
	}

	if _, err := s.deliverAndRecord(ctx, path, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OutcomeFailed, err
	}
	return OutcomeDelivered, nil
}

// deliverAndRecord resolves the thread, delivers path and writes one
// record per transmitted message. The caller holds the lock for hash.
// Records are only written once every enabled mode was sent.
func (s *Sender) deliverAndRecord(ctx context.Context, path, hash string) ([]int64, error) {
	threadID, err := s.threadID(ctx)
	if err != nil {
		countFailed(ctx, "thread")
		return nil, err
	}

	ids, err := s.delivery.Deliver(ctx, path, s.cfg.ChatID, s.cfg.Modes(), threadID)
	if err != nil {
		// Nothing is recorded after a failed delivery, even for modes that
		// went out, so the next reconciliation pass retries the file.
		countFailed(ctx, "delivery")
		if !errors.Is(err, ErrNoTransportMode) {
			s.alert(ctx, Msg("alert_delivery_title"), err.Error())
		}
		return nil, err
	}

	var recordErr error
	for _, id := range ids {
		if err := s.ledger.RecordScreenshot(ctx, id, hash, s.now()); err != nil {
			s.persistenceFailure(ctx, path, id, err)
			recordErr = errors.Join(recordErr, err)
			continue
		}
		countDelivered(ctx)
	}
	if recordErr != nil {
		return ids, recordErr
	}
	LogOK("%s", fmt.Sprintf(Msg("marked_sent"), path))
	return ids, nil
}

// threadID returns the forum topic to post into, 0 for the top-level chat.
func (s *Sender) threadID(ctx context.Context) (int64, error) {
	if s.cfg.ThreadNameFile == "" {
		return 0, nil
	}
	thread, err := s.threads.ResolveThread(ctx, s.cfg.ThreadNameFile, s.cfg.ChatID)
	if err != nil || thread == nil {
		return 0, err
	}
	return thread.ID, nil
}

// resend copies the recorded message back into the chat. Copies are not
// recorded: the hash is already known.
func (s *Sender) resend(ctx context.Context, path string, rec *ScreenshotRecord) (Outcome, error) {
	threadID, err := s.threadID(ctx)
	if err != nil {
		countFailed(ctx, "thread")
		return OutcomeFailed, err
	}
	if _, err := s.client.CopyMessage(ctx, s.cfg.ChatID, threadID, rec.MessageID); err != nil {
		countFailed(ctx, "copy")
		return OutcomeFailed, &DeliveryError{Mode: "copy", ChatID: s.cfg.ChatID, Path: path, Err: err}
	}
	LogOK("%s", fmt.Sprintf(Msg("resent"), path, rec.MessageID))
	return OutcomeResent, nil
}

// persistenceFailure is the dangerous case: the message is out but the
// ledger does not know, so the next reconciliation sends it again.
func (s *Sender) persistenceFailure(ctx context.Context, path string, messageID int64, err error) {
	countFailed(ctx, "record")
	msg := fmt.Sprintf(Msg("record_failed"), path, messageID, err)
	LogError("%s", msg)
	s.alert(ctx, Msg("alert_record_title"), msg)
}

func (s *Sender) alert(ctx context.Context, title, message string) {
	if err := s.notifier.Notify(ctx, title, message); err != nil && !errors.Is(err, ErrUnsupportedOS) {
		LogWarn("notify: %v", err)
	}
}
