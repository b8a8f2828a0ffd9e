package cleanup

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"

	entrymodels "io.winapps.sitefollowup/internal/models/entry"
	"io.winapps.sitefollowup/internal/storage"
)

type fakeLister struct {
	entries []entrymodels.Entry
	err     error
}

func (l *fakeLister) ListEntries(_ context.Context) ([]entrymodels.Entry, error) {
	return l.entries, l.err
}

type fakeStore struct {
	objects   []storage.ObjectInfo
	listErr   error
	removeErr error
	removed   []string
}

func (s *fakeStore) Upload(_ context.Context, _ string, _ []byte, _ string) error { return nil }
func (s *fakeStore) Download(_ context.Context, _ string) ([]byte, error)         { return nil, nil }
func (s *fakeStore) PublicURL(key string) string                                  { return key }

func (s *fakeStore) Remove(_ context.Context, keys []string) error {
	s.removed = append(s.removed, keys...)
	return s.removeErr
}

func (s *fakeStore) List(_ context.Context, _ string) ([]storage.ObjectInfo, error) {
	return s.objects, s.listErr
}

func TestSweepRemovesOnlyStaleOrphans(t *testing.T) {
	stale := time.Now().Add(-48 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	lister := &fakeLister{entries: []entrymodels.Entry{
		{PhotoRef: entrymodels.NewPhotoRef("kept-scalar.jpg")},
		{PhotoRef: entrymodels.ParsePhotoRef(`["kept-a.jpg","kept-b.jpg"]`)},
	}}
	store := &fakeStore{objects: []storage.ObjectInfo{
		{Name: "kept-scalar.jpg", CreatedAt: stale},
		{Name: "kept-a.jpg", CreatedAt: stale},
		{Name: "kept-b.jpg", CreatedAt: stale},
		{Name: "orphan-old.jpg", CreatedAt: stale},
		{Name: "orphan-fresh.jpg", CreatedAt: fresh}, // may belong to an in-flight submission
	}}

	NewSweeper(lister, store, zap.NewNop().Sugar()).Run()

	sort.Strings(store.removed)
	if len(store.removed) != 1 || store.removed[0] != "orphan-old.jpg" {
		t.Errorf("removed = %v, want only orphan-old.jpg", store.removed)
	}
}

func TestSweepNothingToDo(t *testing.T) {
	lister := &fakeLister{entries: []entrymodels.Entry{
		{PhotoRef: entrymodels.NewPhotoRef("a.jpg")},
	}}
	store := &fakeStore{objects: []storage.ObjectInfo{
		{Name: "a.jpg", CreatedAt: time.Now().Add(-72 * time.Hour)},
	}}

	NewSweeper(lister, store, zap.NewNop().Sugar()).Run()

	if len(store.removed) != 0 {
		t.Errorf("removed = %v, want none", store.removed)
	}
}

func TestSweepAbortsWhenRepositoryFails(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	store := &fakeStore{objects: []storage.ObjectInfo{
		{Name: "orphan.jpg", CreatedAt: time.Now().Add(-48 * time.Hour)},
	}}

	NewSweeper(lister, store, zap.NewNop().Sugar()).Run()

	// Deleting with an unknown reference set would reclaim live photos.
	if len(store.removed) != 0 {
		t.Errorf("removed = %v despite repository failure", store.removed)
	}
}
