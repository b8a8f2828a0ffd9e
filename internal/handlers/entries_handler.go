package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	"io.winapps.sitefollowup/internal/ingest"
	createmodels "io.winapps.sitefollowup/internal/models/create_entry"
	entrymodels "io.winapps.sitefollowup/internal/models/entry"
	"io.winapps.sitefollowup/internal/repository"
	"io.winapps.sitefollowup/internal/storage"
)

const entriesCacheKey = "entries:all"
const entriesCacheTTL = 5 * time.Minute

type EntriesHandler struct {
	repo     repository.EntryStore
	store    storage.ObjectStore
	pipeline *ingest.Pipeline
	redis    *redis.Client
	logger   *zap.SugaredLogger
}

// NewEntriesHandler creates a new entries handler
func NewEntriesHandler(repo repository.EntryStore, store storage.ObjectStore, pipeline *ingest.Pipeline, redisClient *redis.Client, logger *zap.SugaredLogger) *EntriesHandler {
	return &EntriesHandler{
		repo:     repo,
		store:    store,
		pipeline: pipeline,
		redis:    redisClient,
		logger:   logger,
	}
}

// ListEntries returns every entry, newest first, with a derived public
// URL for the primary photo
func (h *EntriesHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := h.redis.Get(ctx, entriesCacheKey).Result(); err == nil {
		var entries []entrymodels.Entry
		if json.Unmarshal([]byte(cached), &entries) == nil {
			c.JSON(http.StatusOK, entries)
			return
		}
	}

	entries, err := h.repo.ListEntries(ctx)
	if err != nil {
		h.logError(c, err, "failed to list entries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch entries"})
		return
	}
	if entries == nil {
		entries = []entrymodels.Entry{}
	}
	for i := range entries {
		if key := entries[i].PhotoRef.Primary(); key != "" {
			entries[i].PhotoURL = h.store.PublicURL(key)
		}
	}

	h.cacheEntries(ctx, entries)
	c.JSON(http.StatusOK, entries)
}

// CreateEntry runs one submission through the ingestion pipeline
func (h *EntriesHandler) CreateEntry(c *gin.Context) {
	var req createmodels.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ctx := c.Request.Context()
	payload, err := h.pipeline.Process(ctx, &req)

	switch {
	case err == nil:
		h.redis.Del(ctx, entriesCacheKey)
		c.JSON(http.StatusCreated, payload)
	case errors.Is(err, errs.ErrUnconfirmed):
		// Photos are already durably stored; the caller must not retry
		// the upload, only requery. The payload says what was committed.
		h.redis.Del(ctx, entriesCacheKey)
		c.JSON(http.StatusAccepted, payload)
	default:
		h.logError(c, err, "entry submission failed", "name", req.Name, "photos", len(req.Photos))
		c.JSON(errs.HTTPStatus(err), gin.H{"error": errorMessage(err, "Failed to create entry")})
	}
}

// DeleteEntry removes the row, then best-effort reclaims its photos.
// Storage cleanup failure never changes the outcome once the row is gone
func (h *EntriesHandler) DeleteEntry(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	ref, err := h.repo.DeleteEntry(ctx, id)
	if err != nil {
		h.logError(c, err, "failed to delete entry", "id", id)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": errorMessage(err, "Failed to delete entry")})
		return
	}

	if keys := ref.Keys(); len(keys) > 0 {
		if err := h.store.Remove(ctx, keys); err != nil {
			h.logger.Warnw("entry row deleted but photo cleanup failed",
				"id", id, "keys", keys, "error", err)
		}
	}

	h.redis.Del(ctx, entriesCacheKey)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *EntriesHandler) cacheEntries(ctx context.Context, entries []entrymodels.Entry) {
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, entriesCacheKey, data, entriesCacheTTL).Err(); err != nil {
		h.logger.Warnw("failed to cache entries list", "error", err)
	}
}
