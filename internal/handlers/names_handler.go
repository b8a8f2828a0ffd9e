package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	namemodels "io.winapps.sitefollowup/internal/models/name"
	"io.winapps.sitefollowup/internal/repository"
)

const namesCacheKey = "names:all"
const namesCacheTTL = time.Hour

type NamesHandler struct {
	repo   *repository.Store
	redis  *redis.Client
	logger *zap.SugaredLogger
}

// NewNamesHandler creates a new names handler
func NewNamesHandler(repo *repository.Store, redisClient *redis.Client, logger *zap.SugaredLogger) *NamesHandler {
	return &NamesHandler{
		repo:   repo,
		redis:  redisClient,
		logger: logger,
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

// ListNames returns the lookup list sorted by name
func (h *NamesHandler) ListNames(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := h.redis.Get(ctx, namesCacheKey).Result(); err == nil {
		var names []namemodels.Name
		if json.Unmarshal([]byte(cached), &names) == nil {
			c.JSON(http.StatusOK, names)
			return
		}
	}

	names, err := h.repo.ListNames(ctx)
	if err != nil {
		h.logError(c, err, "failed to list names")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch names"})
		return
	}
	if names == nil {
		names = []namemodels.Name{}
	}

	h.cacheNames(ctx, names)
	c.JSON(http.StatusOK, names)
}

// CreateName adds a new name to the lookup list
func (h *NamesHandler) CreateName(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	ctx := c.Request.Context()
	created, err := h.repo.CreateName(ctx, name)
	if err != nil {
		h.logError(c, err, "failed to create name", "name", name)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": errorMessage(err, "Failed to create name")})
		return
	}

	h.redis.Del(ctx, namesCacheKey)
	c.JSON(http.StatusCreated, created)
}

// UpdateName renames an existing lookup entry
func (h *NamesHandler) UpdateName(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name id"})
		return
	}

	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	ctx := c.Request.Context()
	updated, err := h.repo.UpdateName(ctx, id, name)
	if err != nil {
		h.logError(c, err, "failed to update name", "id", id)
		c.JSON(errs.HTTPStatus(err), gin.H{"error": errorMessage(err, "Failed to update name")})
		return
	}

	h.redis.Del(ctx, namesCacheKey)
	c.JSON(http.StatusOK, updated)
}

// DeleteName removes a lookup entry
func (h *NamesHandler) DeleteName(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid name id"})
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.DeleteName(ctx, id); err != nil {
		h.logError(c, err, "failed to delete name", "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete"})
		return
	}

	h.redis.Del(ctx, namesCacheKey)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *NamesHandler) cacheNames(ctx context.Context, names []namemodels.Name) {
	data, err := json.Marshal(names)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, namesCacheKey, data, namesCacheTTL).Err(); err != nil {
		h.logger.Warnw("failed to cache names list", "error", err)
	}
}
