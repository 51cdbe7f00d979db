package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/apiserver/middleware"
	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/eventbus"
	"github.com/propgraph/propgraph/pkg/importer"
)

var uploadExtensions = map[string]bool{".xlsx": true, ".csv": true}

type ImportHandler struct {
	importer *importer.Importer
	cfg      config.ImportConfig
	bus      *eventbus.Bus
	logger   *zap.Logger
}

func NewImportHandler(imp *importer.Importer, cfg config.ImportConfig, bus *eventbus.Bus, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{importer: imp, cfg: cfg, bus: bus, logger: logger}
}

// Import returns the upload handler for one collection. The multipart field
// is "file".
func (h *ImportHandler) Import(collection importer.Collection) gin.HandlerFunc {
	action := "import " + string(collection)
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				fail(c, h.logger, err, action)
				return
			}
			fail(c, h.logger, errs.Invalid("file", "is required"), action)
			return
		}
		if h.cfg.MaxFileSize > 0 && file.Size > h.cfg.MaxFileSize {
			reject(c, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !uploadExtensions[ext] {
			reject(c, http.StatusBadRequest, "unsupported file type "+ext+", expected .xlsx or .csv")
			return
		}

		tmp, err := os.CreateTemp(h.cfg.UploadDir, "import-*"+ext)
		if err != nil {
			fail(c, h.logger, err, action)
			return
		}
		path := tmp.Name()
		_ = tmp.Close()
		if err := c.SaveUploadedFile(file, path); err != nil {
			_ = os.Remove(path)
			fail(c, h.logger, err, action)
			return
		}

		userID := middleware.UserID(c)
		ctx := c.Request.Context()
		report, err := h.importer.ImportFile(ctx, collection, path, userID)
		if err != nil {
			fail(c, h.logger, err, action, zap.String("file", file.Filename))
			return
		}

		event := eventbus.ImportEvent{
			Collection: string(collection),
			UserID:     userID,
			Total:      report.TotalEntries,
			Inserted:   report.InsertedEntries,
			Invalid:    report.SkippedInvalidEntries,
			Duplicate:  report.SkippedDuplicateEntries,
			Failed:     report.FailedEntries,
		}
		if err := h.bus.Emit(ctx, eventbus.ChannelImport, eventbus.TypeImportCompleted, event); err != nil {
			h.logger.Warn("Failed to publish import event", zap.Error(err))
		}

		message := "import completed"
		if !report.Success {
			message = "import completed with failed batches"
		}
		c.JSON(http.StatusOK, response{Success: report.Success, Message: message, Data: report})
	}
}
