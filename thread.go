package tgscreenshots

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MarkerResult is the outcome of reading the thread marker file:
// MarkerFound, MarkerAbsent or MarkerError.
type MarkerResult interface {
	isMarkerResult()
}

// MarkerFound carries the trimmed first non-blank line of the marker file.
type MarkerFound struct{ Name string }

// MarkerAbsent means no thread name is available. Missing is set when the
// file itself does not exist, as opposed to holding only blank lines.
type MarkerAbsent struct{ Missing bool }

// MarkerError is any read failure other than a missing file.
type MarkerError struct{ Err error }

func (MarkerFound) isMarkerResult()  {}
func (MarkerAbsent) isMarkerResult() {}
func (MarkerError) isMarkerResult()  {}

// ReadMarkerFile reads the thread name from path.
func ReadMarkerFile(path string) MarkerResult {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return MarkerAbsent{Missing: true}
		}
		return MarkerError{Err: fmt.Errorf("read thread name file %s: %w", path, err)}
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			return MarkerFound{Name: name}
		}
	}
	if err := sc.Err(); err != nil {
		return MarkerError{Err: fmt.Errorf("read thread name file %s: %w", path, err)}
	}
	return MarkerAbsent{}
}

// ThreadResolver maps the name in the marker file onto a forum topic,
// creating the topic remotely on first use.
type ThreadResolver struct {
	ledger Ledger
	client MessagingClient
	names  *keyLock
}

func NewThreadResolver(ledger Ledger, client MessagingClient) *ThreadResolver {
	return &ThreadResolver{ledger: ledger, client: client, names: newKeyLock()}
}

// ResolveThread returns the thread named by markerPath in chatID, or nil
// when no thread routing applies (missing file or empty name).
func (r *ThreadResolver) ResolveThread(ctx context.Context, markerPath, chatID string) (*ThreadRecord, error) {
	ctx, span := tracer.Start(ctx, "resolve_thread",
		trace.WithAttributes(attribute.String("marker.path", markerPath)))
	defer span.End()

	var name string
	switch res := ReadMarkerFile(markerPath).(type) {
	case MarkerFound:
		name = res.Name
	case MarkerAbsent:
		if res.Missing {
			LogWarn("%s", fmt.Sprintf(Msg("marker_missing"), markerPath))
		}
		return nil, nil
	case MarkerError:
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		return nil, res.Err
	}
	span.SetAttributes(attribute.String("thread.name", name))

	unlock := r.names.Lock(name)
	defer unlock()

	existing, err := r.ledger.FindThreadByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	id, err := r.client.CreateForumTopic(ctx, chatID, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create thread %q in %s: %w", name, chatID, err)
	}
	thread := ThreadRecord{ID: id, Name: name}
	if err := r.ledger.RecordThread(ctx, thread); err != nil {
		// The topic exists remotely but the next resolution will create
		// another one with the same name.
		LogError("%s", fmt.Sprintf(Msg("thread_record_failed"), name, id, err))
		return &thread, nil
	}
	LogOK("%s", fmt.Sprintf(Msg("thread_created"), name, id))
	return &thread, nil
}
