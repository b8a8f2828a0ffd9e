package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
)

func requestContextFields(c *gin.Context) []interface{} {
	return []interface{}{
		"request_id", c.GetString("request_id"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"query", c.Request.URL.RawQuery,
		"client_ip", c.ClientIP(),
	}
}

func logWithContext(logger *zap.SugaredLogger, c *gin.Context, level string, msg string, fields ...interface{}) {
	base := requestContextFields(c)
	all := append(base, fields...)
	switch level {
	case "debug":
		logger.Debugw(msg, all...)
	case "warn":
		logger.Warnw(msg, all...)
	case "error":
		logger.Errorw(msg, all...)
	default:
		logger.Infow(msg, all...)
	}
}

func (h *NamesHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	if h.logger == nil {
		return
	}
	logWithContext(h.logger, c, "error", msg, append(fields, "error", err)...)
}

func (h *EntriesHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	if h.logger == nil {
		return
	}
	logWithContext(h.logger, c, "error", msg, append(fields, "error", err)...)
}

func (h *ExportHandler) logError(c *gin.Context, err error, msg string, fields ...interface{}) {
	if h.logger == nil {
		return
	}
	logWithContext(h.logger, c, "error", msg, append(fields, "error", err)...)
}

// errorMessage prefers the typed error's own message for caller-facing
// kinds and falls back to a generic one for internal failures.
func errorMessage(err error, fallback string) string {
	var workflow *errs.WorkflowError
	if errors.As(err, &workflow) {
		return workflow.Message
	}
	switch errs.HTTPStatus(err) {
	case 400, 404, 409, 503:
		return err.Error()
	}
	return fallback
}
