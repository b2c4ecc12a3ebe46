package tgscreenshots

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ReconcileSummary counts what a reconciliation pass did.
type ReconcileSummary struct {
	PassID      string `json:"pass_id"`
	Scanned     int    `json:"scanned"`
	AlreadySent int    `json:"already_sent"`
	Unsent      int    `json:"unsent"`
	Delivered   int    `json:"delivered"`
	Failed      int    `json:"failed"`
}

type hashedFile struct {
	path string
	hash string
	err  error
}

// Reconcile sends every image under the configured directory whose hash
// is not in the ledger. The set of sent hashes is read once up front, so
// two unsent files with identical content are both delivered. Per-file
// failures are logged and counted; the returned error is only for the
// pass itself (ledger snapshot or directory walk).
func (s *Sender) Reconcile(ctx context.Context) (ReconcileSummary, error) {
	sum := ReconcileSummary{PassID: uuid.NewString()}
	ctx, span := tracer.Start(ctx, "reconcile", trace.WithAttributes(
		attribute.String("reconcile.pass_id", sum.PassID),
		attribute.String("reconcile.directory", s.cfg.Directory),
	))
	defer span.End()

	LogInfo("%s", fmt.Sprintf(Msg("scanning"), s.cfg.Directory, s.cfg.ChatID))

	records, err := s.ledger.ListScreenshots(ctx)
	if err != nil {
		return sum, fmt.Errorf("reconcile: snapshot ledger: %w", err)
	}
	sent := make(map[string]struct{}, len(records))
	for _, r := range records {
		sent[r.Hash] = struct{}{}
	}
	LogInfo("%s", fmt.Sprintf(Msg("found_sent"), len(records)))

	paths, err := ListImages(s.cfg.Directory)
	if err != nil {
		return sum, fmt.Errorf("reconcile: %w", err)
	}
	sum.Scanned = len(paths)

	hashed, err := s.hashAll(ctx, paths)
	if err != nil {
		return sum, fmt.Errorf("reconcile: hash files: %w", err)
	}

	var unsent []hashedFile
	for _, f := range hashed {
		if f.err != nil {
			LogError("%s", fmt.Sprintf(Msg("file_failed"), f.path, s.cfg.ChatID, f.err))
			sum.Failed++
			continue
		}
		if _, ok := sent[f.hash]; ok {
			sum.AlreadySent++
			continue
		}
		unsent = append(unsent, f)
	}
	sum.Unsent = len(unsent)
	LogInfo("%s", fmt.Sprintf(Msg("found_unsent"), len(unsent)))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.workers())
	for _, f := range unsent {
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				sum.Failed++
				mu.Unlock()
				return nil
			}
			// Once started, the send and its record write run to the end.
			err := s.sendUnsent(context.WithoutCancel(ctx), f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				LogError("%s", fmt.Sprintf(Msg("file_failed"), f.path, s.cfg.ChatID, err))
				sum.Failed++
				return nil
			}
			sum.Delivered++
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("reconcile.scanned", sum.Scanned),
		attribute.Int("reconcile.delivered", sum.Delivered),
		attribute.Int("reconcile.failed", sum.Failed),
	)
	LogOK("%s", fmt.Sprintf(Msg("reconcile_done"), sum.Delivered, sum.AlreadySent, sum.Failed))
	return sum, nil
}

// sendUnsent delivers a file the snapshot did not know about. There is no
// second ledger lookup here; the lock only orders it against a live event
// for the same content.
func (s *Sender) sendUnsent(ctx context.Context, f hashedFile) error {
	unlock := s.hashes.Lock(f.hash)
	defer unlock()
	_, err := s.deliverAndRecord(ctx, f.path, f.hash)
	return err
}

// hashAll fingerprints paths on a bounded pool. Results keep the order of
// paths; a file that cannot be read carries its error.
func (s *Sender) hashAll(ctx context.Context, paths []string) ([]hashedFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	pool := pond.NewResultPool[hashedFile](s.workers(), pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, p := range paths {
		group.Submit(func() hashedFile {
			h, err := HashFile(p)
			return hashedFile{path: p, hash: h, err: err}
		})
	}
	return group.Wait()
}

func (s *Sender) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return 1
}

// ListImages walks dir recursively and returns every image file, skipping
// hidden directories.
func ListImages(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("walk %s: %w", path, err)
			}
			LogWarn("skip %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsImage(path) {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
