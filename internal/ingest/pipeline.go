// Package ingest drives one entry submission from raw photos to a
// dispatched payload: validate, normalize+upload each photo, assemble,
// hand off to the configured dispatcher.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	"io.winapps.sitefollowup/internal/imaging"
	createmodels "io.winapps.sitefollowup/internal/models/create_entry"
	"io.winapps.sitefollowup/internal/storage"
)

// Payload is the canonical submission assembled by the pipeline. It is
// handed to the dispatcher and, on success, echoed back to the caller.
type Payload = createmodels.CreateEntryResponse

// Dispatcher is the terminal step of the pipeline: either a synchronous
// handoff to the downstream workflow processor or a direct insert into
// the entry repository, chosen once at startup.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload *Payload) error
}

// Pipeline processes one submission at a time; instances are stateless
// and safe for concurrent requests.
type Pipeline struct {
	store      storage.ObjectStore
	dispatcher Dispatcher
	imgOpts    imaging.Options
	logger     *zap.SugaredLogger
}

// NewPipeline wires the pipeline's collaborators.
func NewPipeline(store storage.ObjectStore, dispatcher Dispatcher, imgOpts imaging.Options, logger *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		store:      store,
		dispatcher: dispatcher,
		imgOpts:    imgOpts,
		logger:     logger,
	}
}

// Process runs the submission state machine, terminal on first failure.
// Photos uploaded before a later photo fails are not rolled back; no
// entry is ever persisted for an aborted submission, and the orphan
// sweeper reclaims the leaked objects.
func (p *Pipeline) Process(ctx context.Context, req *createmodels.CreateEntryRequest) (*Payload, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &errs.ValidationError{Msg: "name is required"}
	}

	photos := req.Photos
	if len(photos) == 0 && req.Photo != "" {
		// Legacy clients send a single photo field.
		photos = []string{req.Photo}
	}
	if len(photos) == 0 {
		return nil, &errs.ValidationError{Msg: "at least one photo is required"}
	}

	now := time.Now()
	date := req.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = now.Format("15:04:05")
	}

	keys := make([]string, 0, len(photos))
	urls := make([]string, 0, len(photos))
	for i, photo := range photos {
		data, err := imaging.Normalize(photo, p.imgOpts)
		if err != nil {
			return nil, err
		}

		key := photoKey(name, now, i)
		if err := p.store.Upload(ctx, key, data, "image/jpeg"); err != nil {
			p.logger.Errorw("photo upload failed, aborting submission",
				"key", key, "index", i, "uploaded", len(keys), "error", err)
			return nil, err
		}
		keys = append(keys, key)
		urls = append(urls, p.store.PublicURL(key))
	}

	payload := &Payload{
		Name:          name,
		Date:          date,
		Timestamp:     timestamp,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		AreaName:      req.AreaName,
		ExtractedText: req.ExtractedText,
		PhotoURLs:     urls,
		PhotoKeys:     keys,
		PhotoURL:      urls[0],
	}

	if err := p.dispatcher.Dispatch(ctx, payload); err != nil {
		// On a timeout the photos are already durably stored; the caller
		// gets the payload back alongside the unconfirmed outcome.
		return payload, err
	}
	return payload, nil
}

// photoKey derives a storage key from the submitter, the submission
// time, and the photo's position, with a uuid fragment to rule out
// collisions between same-second submissions.
func photoKey(name string, t time.Time, index int) string {
	return fmt.Sprintf("%s_%s_%d_%s.jpg", slugify(name), t.Format("20060102T150405"), index, uuid.New().String()[:8])
}

// slugify reduces a display name to a storage-safe lowercase fragment.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "entry"
	}
	return b.String()
}
