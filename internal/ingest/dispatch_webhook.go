package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
)

// DispatchTimeout bounds the synchronous wait for downstream
// acknowledgement.
const DispatchTimeout = 30 * time.Second

// WebhookDispatcher forwards the assembled payload to the downstream
// workflow processor and waits for acknowledgement. Three distinct
// failure outcomes are surfaced, never collapsed: a remote error status,
// a timeout with storage already committed, and an unreachable remote.
type WebhookDispatcher struct {
	url    string
	client *http.Client
	logger *zap.SugaredLogger
}

func NewWebhookDispatcher(url string, logger *zap.SugaredLogger) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: DispatchTimeout},
		logger: logger,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, payload *Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			d.logger.Warnw("workflow dispatch timed out after storage commit",
				"url", d.url, "photo_keys", payload.PhotoKeys)
			return errs.ErrUnconfirmed
		}
		return &errs.UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errs.WorkflowError{
		Status:  resp.StatusCode,
		Message: extractMessage(resp.Body),
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// extractMessage pulls the most specific message the downstream response
// offers: "message", then "error", then the raw body.
func extractMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 4096))
	var fields struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &fields); err == nil {
		if fields.Message != "" {
			return fields.Message
		}
		if fields.Error != "" {
			return fields.Error
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return msg
	}
	return "workflow processor rejected the submission"
}
