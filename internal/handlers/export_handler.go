package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"io.winapps.sitefollowup/internal/errs"
	"io.winapps.sitefollowup/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	builder *report.Builder
	logger  *zap.SugaredLogger
}

// NewExportHandler creates a new export handler
func NewExportHandler(builder *report.Builder, logger *zap.SugaredLogger) *ExportHandler {
	return &ExportHandler{
		builder: builder,
		logger:  logger,
	}
}

// Export streams the generated spreadsheet back as an attachment
func (h *ExportHandler) Export(c *gin.Context) {
	buf, err := h.builder.Build(c.Request.Context())
	if err != nil {
		if errors.Is(err, errs.ErrEmptyReport) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No entries to export"})
			return
		}
		h.logError(c, err, "report generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	filename := report.Filename(time.Now())
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
