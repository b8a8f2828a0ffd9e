// Package cleanup reclaims storage objects left behind by aborted
// submissions. Uploads are not rolled back inline when a later photo in
// the same submission fails, so unreferenced objects accumulate until
// this sweep removes them.
package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"

	entrymodels "io.winapps.sitefollowup/internal/models/entry"
	"io.winapps.sitefollowup/internal/storage"
)

// entryLister is the slice of the repository the sweeper needs.
type entryLister interface {
	ListEntries(ctx context.Context) ([]entrymodels.Entry, error)
}

// minOrphanAge keeps the sweep from racing an in-flight submission whose
// entry row has not been written yet.
const minOrphanAge = 24 * time.Hour

type Sweeper struct {
	repo   entryLister
	store  storage.ObjectStore
	logger *zap.SugaredLogger
}

func NewSweeper(repo entryLister, store storage.ObjectStore, logger *zap.SugaredLogger) *Sweeper {
	return &Sweeper{repo: repo, store: store, logger: logger}
}

// Run deletes every stored object that no entry references and that is
// older than minOrphanAge. Best-effort: failures are logged, never
// propagated; the next scheduled run picks up what this one missed.
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		s.logger.Errorw("orphan sweep aborted: listing entries failed", "error", err)
		return
	}
	referenced := make(map[string]struct{})
	for _, entry := range entries {
		for _, key := range entry.PhotoRef.Keys() {
			referenced[key] = struct{}{}
		}
	}

	objects, err := s.store.List(ctx, "")
	if err != nil {
		s.logger.Errorw("orphan sweep aborted: listing bucket failed", "error", err)
		return
	}

	cutoff := time.Now().Add(-minOrphanAge)
	var orphans []string
	for _, obj := range objects {
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if obj.CreatedAt.After(cutoff) {
			continue
		}
		orphans = append(orphans, obj.Name)
	}
	if len(orphans) == 0 {
		s.logger.Infow("orphan sweep found nothing to reclaim", "objects", len(objects), "referenced", len(referenced))
		return
	}

	if err := s.store.Remove(ctx, orphans); err != nil {
		s.logger.Warnw("orphan sweep deletion failed", "count", len(orphans), "error", err)
		return
	}
	s.logger.Infow("orphan sweep reclaimed objects", "count", len(orphans))
}
