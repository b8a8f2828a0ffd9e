package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	entrymodels "io.winapps.sitefollowup/internal/models/entry"
	"io.winapps.sitefollowup/internal/repository"
)

// DirectDispatcher is the legacy persistence mode, mandatory when no
// workflow webhook is configured: insert the entry row directly and
// optionally notify a side-effect webhook without blocking the response.
type DirectDispatcher struct {
	repo      repository.EntryWriter
	notifyURL string
	client    *http.Client
	logger    *zap.SugaredLogger
}

func NewDirectDispatcher(repo repository.EntryWriter, notifyURL string, logger *zap.SugaredLogger) *DirectDispatcher {
	return &DirectDispatcher{
		repo:      repo,
		notifyURL: notifyURL,
		client:    &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
	}
}

func (d *DirectDispatcher) Dispatch(ctx context.Context, payload *Payload) error {
	entry := &entrymodels.Entry{
		ID:            uuid.New().String(),
		Name:          payload.Name,
		Date:          payload.Date,
		Timestamp:     payload.Timestamp,
		Latitude:      payload.Latitude,
		Longitude:     payload.Longitude,
		AreaName:      payload.AreaName,
		ExtractedText: payload.ExtractedText,
		PhotoRef:      entrymodels.NewPhotoRef(payload.PhotoKeys...),
		CreatedAt:     time.Now(),
	}
	if err := d.repo.InsertEntry(ctx, entry); err != nil {
		return err
	}
	payload.ID = entry.ID

	if d.notifyURL != "" {
		// Fire and forget; a lost notification never fails the caller.
		go d.notify(*payload)
	}
	return nil
}

func (d *DirectDispatcher) notify(payload Payload) {
	body, err := json.Marshal(&payload)
	if err != nil {
		d.logger.Errorw("failed to marshal notification payload", "error", err)
		return
	}
	resp, err := d.client.Post(d.notifyURL, "application/json", bytes.NewReader(body))
	if err != nil {
		d.logger.Warnw("notification webhook failed", "url", d.notifyURL, "error", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		d.logger.Warnw("notification webhook returned error status",
			"url", d.notifyURL, "status", resp.StatusCode)
	}
}
