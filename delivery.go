package tgscreenshots

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoTransportMode is returned when neither photo nor document sending
// is enabled.
var ErrNoTransportMode = errors.New("delivery: no transport mode enabled")

// Mode is one way of transmitting a file.
type Mode string

const (
	// ModePhoto sends a compressed preview.
	ModePhoto Mode = "photo"
	// ModeDocument sends the original file untouched.
	ModeDocument Mode = "document"
)

// Modes selects which transmissions happen for each file.
type Modes struct {
	Photo    bool
	Document bool
}

// List returns the enabled modes in transmission order.
func (m Modes) List() []Mode {
	var out []Mode
	if m.Photo {
		out = append(out, ModePhoto)
	}
	if m.Document {
		out = append(out, ModeDocument)
	}
	return out
}

// DeliveryError reports a failed transmission.
type DeliveryError struct {
	Mode   Mode
	ChatID string
	Path   string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("send %s as %s to %s: %v", e.Path, e.Mode, e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Deliverer transmits files through a MessagingClient.
type Deliverer struct {
	client MessagingClient
}

func NewDeliverer(client MessagingClient) *Deliverer {
	return &Deliverer{client: client}
}

// Deliver sends path to chatID once per enabled mode and returns the
// resulting message ids in mode order. On failure it stops, returning the
// ids already obtained together with a *DeliveryError. Nothing is retried.
func (d *Deliverer) Deliver(ctx context.Context, path, chatID string, modes Modes, threadID int64) ([]int64, error) {
	list := modes.List()
	if len(list) == 0 {
		return nil, ErrNoTransportMode
	}

	ctx, span := tracer.Start(ctx, "deliver", trace.WithAttributes(
		attribute.String("file.path", path),
		attribute.String("chat.id", chatID),
		attribute.Int64("thread.id", threadID),
	))
	defer span.End()

	if threadID != 0 {
		LogInfo("%s", fmt.Sprintf(Msg("sending_thread"), path, chatID, threadID))
	} else {
		LogInfo("%s", fmt.Sprintf(Msg("sending"), path, chatID))
	}

	ids := make([]int64, 0, len(list))
	for _, mode := range list {
		var id int64
		var err error
		switch mode {
		case ModePhoto:
			id, err = d.client.SendPhoto(ctx, chatID, threadID, path)
		case ModeDocument:
			id, err = d.client.SendDocument(ctx, chatID, threadID, path)
		}
		if err != nil {
			derr := &DeliveryError{Mode: mode, ChatID: chatID, Path: path, Err: err}
			span.RecordError(derr)
			span.SetStatus(codes.Error, derr.Error())
			return ids, derr
		}
		ids = append(ids, id)
	}
	span.SetAttributes(attribute.Int("message.count", len(ids)))
	return ids, nil
}
