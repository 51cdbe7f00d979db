package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/report"
)

type ReportHandler struct {
	aggregator *report.Aggregator
	logger     *zap.Logger
}

func NewReportHandler(aggregator *report.Aggregator, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{aggregator: aggregator, logger: logger}
}

func (h *ReportHandler) MasterDevelopment(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, h.logger, err, "build report")
		return
	}

	rep, err := h.aggregator.Report(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "build report", zap.String("id", id.String()))
		return
	}
	respond(c, http.StatusOK, "", rep)
}
