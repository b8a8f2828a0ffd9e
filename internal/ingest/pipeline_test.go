package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	"io.winapps.sitefollowup/internal/imaging"
	createmodels "io.winapps.sitefollowup/internal/models/create_entry"
	"io.winapps.sitefollowup/internal/storage"
)

// fakeStore is an in-memory ObjectStore that can fail a chosen upload.
type fakeStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	failAtIndex int // -1 means never fail
	uploads     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, failAtIndex: -1}
}

func (s *fakeStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAtIndex >= 0 && s.uploads == s.failAtIndex {
		return &errs.StorageError{Op: "upload", Key: key, Err: errors.New("simulated transport failure")}
	}
	s.uploads++
	s.objects[key] = data
	return nil
}

func (s *fakeStore) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "object", ID: key}
	}
	return data, nil
}

func (s *fakeStore) Remove(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.objects, k)
	}
	return nil
}

func (s *fakeStore) List(_ context.Context, _ string) ([]storage.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var objects []storage.ObjectInfo
	for name := range s.objects {
		objects = append(objects, storage.ObjectInfo{Name: name})
	}
	return objects, nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://store.test/public/photos/" + key
}

type recordDispatcher struct {
	err      error
	payloads []*Payload
}

func (d *recordDispatcher) Dispatch(_ context.Context, payload *Payload) error {
	d.payloads = append(d.payloads, payload)
	return d.err
}

func testPhoto(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{200, 100, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestPipeline(store *fakeStore, dispatcher Dispatcher) *Pipeline {
	return NewPipeline(store, dispatcher, imaging.DefaultOptions(), zap.NewNop().Sugar())
}

func TestProcessRejectsEmptyName(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	_, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:   "   ",
		Photos: []string{testPhoto(t)},
	})
	var validation *errs.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.objects) != 0 {
		t.Errorf("objects were stored for a rejected submission: %d", len(store.objects))
	}
	if len(dispatcher.payloads) != 0 {
		t.Errorf("dispatcher was called for a rejected submission")
	}
}

func TestProcessRejectsZeroPhotos(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	_, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{Name: "Alice"})
	var validation *errs.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.objects) != 0 || len(dispatcher.payloads) != 0 {
		t.Errorf("rejected submission touched collaborators")
	}
}

func TestProcessAcceptsLegacySinglePhotoField(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	payload, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:  "Alice",
		Photo: testPhoto(t),
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(payload.PhotoKeys) != 1 {
		t.Errorf("photo keys = %v", payload.PhotoKeys)
	}
	if payload.PhotoURL != payload.PhotoURLs[0] {
		t.Errorf("primary photo url = %q, urls = %v", payload.PhotoURL, payload.PhotoURLs)
	}
}

func TestProcessUploadFailureAbortsBeforeDispatch(t *testing.T) {
	store := newFakeStore()
	store.failAtIndex = 1 // second of three photos
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	photo := testPhoto(t)
	_, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:   "Alice",
		Photos: []string{photo, photo, photo},
	})
	var storageErr *errs.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(dispatcher.payloads) != 0 {
		t.Errorf("dispatcher was called after an upload failure")
	}
	// The first upload is not rolled back; the orphan sweeper owns it.
	if len(store.objects) != 1 {
		t.Errorf("stored objects = %d, want the 1 pre-failure upload", len(store.objects))
	}
}

func TestProcessInvalidPhotoIsInvalidImageError(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	_, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:   "Alice",
		Photos: []string{"data:image/png;base64,bm90IGFuIGltYWdl"},
	})
	var invalid *errs.InvalidImageError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidImageError, got %v", err)
	}
	if len(dispatcher.payloads) != 0 {
		t.Errorf("dispatcher was called for an undecodable photo")
	}
}

func TestProcessAssemblesOrderedPayload(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{}
	p := newTestPipeline(store, dispatcher)

	photo := testPhoto(t)
	payload, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:          "Alice",
		Photos:        []string{photo, photo, photo},
		Date:          "2024-01-15",
		Timestamp:     "09:30:00",
		Latitude:      12.9,
		Longitude:     77.6,
		ExtractedText: "permit #42",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(payload.PhotoKeys) != 3 || len(payload.PhotoURLs) != 3 {
		t.Fatalf("keys = %v urls = %v", payload.PhotoKeys, payload.PhotoURLs)
	}
	for i, key := range payload.PhotoKeys {
		if payload.PhotoURLs[i] != store.PublicURL(key) {
			t.Errorf("url[%d] = %q does not match key %q", i, payload.PhotoURLs[i], key)
		}
		if _, ok := store.objects[key]; !ok {
			t.Errorf("key %q was not uploaded", key)
		}
	}
	if payload.Date != "2024-01-15" || payload.Timestamp != "09:30:00" {
		t.Errorf("date/timestamp = %q/%q", payload.Date, payload.Timestamp)
	}
	if len(dispatcher.payloads) != 1 {
		t.Fatalf("dispatch count = %d", len(dispatcher.payloads))
	}
}

func TestProcessTimeoutStillReturnsCommittedPayload(t *testing.T) {
	store := newFakeStore()
	dispatcher := &recordDispatcher{err: errs.ErrUnconfirmed}
	p := newTestPipeline(store, dispatcher)

	payload, err := p.Process(context.Background(), &createmodels.CreateEntryRequest{
		Name:   "Alice",
		Photos: []string{testPhoto(t)},
	})
	if !errors.Is(err, errs.ErrUnconfirmed) {
		t.Fatalf("expected ErrUnconfirmed, got %v", err)
	}
	if payload == nil || len(payload.PhotoURLs) != 1 {
		t.Fatalf("unconfirmed outcome must still carry committed photo URLs: %+v", payload)
	}
}

func TestPhotoKeyIsStorageSafeAndUnique(t *testing.T) {
	now := time.Now()
	k1 := photoKey("Alice O'Brien", now, 0)
	k2 := photoKey("Alice O'Brien", now, 0)
	if k1 == k2 {
		t.Errorf("keys collide: %q", k1)
	}
	for _, k := range []string{k1, k2} {
		for _, r := range k {
			if r == '\'' || r == ' ' {
				t.Errorf("key %q contains unsafe character %q", k, r)
			}
		}
	}
}
