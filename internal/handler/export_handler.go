package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/service"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// ExportHandler handles catalog export HTTP endpoints.
type ExportHandler struct {
	registry      *branch.Registry
	exportService *service.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(registry *branch.Registry, exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{registry: registry, exportService: exportService}
}

// Export handles GET /api/:sucursal/export?format=csv|json&categoria=
func (h *ExportHandler) Export(c *gin.Context) {
	branchName, err := h.registry.Resolve(c.Param("sucursal"))
	if err != nil {
		utils.Error(c, 400, "INVALID_BRANCH", detail(err))
		return
	}
	format := c.DefaultQuery("format", "csv")

	data, contentType, err := h.exportService.Export(c.Request.Context(), branchName, format, c.Query("categoria"))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrValidation):
			utils.Error(c, 400, "VALIDATION_ERROR", detail(err))
		default:
			utils.Error(c, 500, "STORAGE_ERROR", "Failed to render export")
		}
		return
	}

	if strings.HasPrefix(contentType, "text/csv") {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=productos_%s.csv", branchName))
	}
	c.Data(200, contentType, data)
}
