package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/propgraph/propgraph/pkg/apiserver/middleware"
	"github.com/propgraph/propgraph/pkg/cascade"
	"github.com/propgraph/propgraph/pkg/catalog"
	"github.com/propgraph/propgraph/pkg/config"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/eventbus"
	"github.com/propgraph/propgraph/pkg/query"
)

// Remover deletes a record together with whatever depends on it.
type Remover func(ctx context.Context, id uuid.UUID) (*cascade.Result, error)

// EntityHandler serves create, get, update, list and delete for one
// collection.
type EntityHandler[T any, P catalog.Record[T]] struct {
	entity  string
	records *catalog.Collection[T, P]
	rules   *query.Rules
	db      *gorm.DB
	limits  config.QueryConfig
	remove  Remover
	bus     *eventbus.Bus
	logger  *zap.Logger
}

func NewEntityHandler[T any, P catalog.Record[T]](
	entity string,
	records *catalog.Collection[T, P],
	rules *query.Rules,
	db *gorm.DB,
	limits config.QueryConfig,
	remove Remover,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *EntityHandler[T, P] {
	return &EntityHandler[T, P]{
		entity:  entity,
		records: records,
		rules:   rules,
		db:      db,
		limits:  limits,
		remove:  remove,
		bus:     bus,
		logger:  logger,
	}
}

func (h *EntityHandler[T, P]) Create(c *gin.Context) {
	item := P(new(T))
	if err := c.ShouldBindJSON(item); err != nil {
		h.badBody(c, err)
		return
	}

	created, err := h.records.Create(c.Request.Context(), item, middleware.UserID(c))
	if err != nil {
		fail(c, h.logger, err, "create "+h.entity)
		return
	}
	respond(c, http.StatusCreated, h.entity+" created", created)
}

func (h *EntityHandler[T, P]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, h.logger, err, "get "+h.entity)
		return
	}

	item, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err, "get "+h.entity, zap.String("id", id.String()))
		return
	}
	respond(c, http.StatusOK, "", item)
}

func (h *EntityHandler[T, P]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, h.logger, err, "update "+h.entity)
		return
	}

	patch, err := c.GetRawData()
	if err != nil {
		h.badBody(c, err)
		return
	}

	item, err := h.records.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, h.logger, err, "update "+h.entity, zap.String("id", id.String()))
		return
	}
	respond(c, http.StatusOK, h.entity+" updated", item)
}

func (h *EntityHandler[T, P]) List(c *gin.Context) {
	var req query.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badBody(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = h.limits.DefaultLimit
	}

	page, err := query.List[T](c.Request.Context(), h.db, h.rules, req, h.limits.MaxLimit)
	if err != nil {
		fail(c, h.logger, err, "list "+h.entity)
		return
	}
	respond(c, http.StatusOK, "", page)
}

func (h *EntityHandler[T, P]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, h.logger, err, "delete "+h.entity)
		return
	}

	ctx := c.Request.Context()
	result, err := h.remove(ctx, id)
	if err != nil {
		fail(c, h.logger, err, "delete "+h.entity, zap.String("id", id.String()))
		return
	}

	event := eventbus.CascadeEvent{
		Root:    result.Root,
		ID:      id.String(),
		Removed: 1 + result.SubDevelopments + result.Projects + result.Inventory,
	}
	if err := h.bus.Emit(ctx, eventbus.ChannelCascade, eventbus.TypeCascadeDeleted, event); err != nil {
		h.logger.Warn("Failed to publish delete event", zap.String("id", id.String()), zap.Error(err))
	}
	respond(c, http.StatusOK, h.entity+" deleted", result)
}

func (h *EntityHandler[T, P]) badBody(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(c, h.logger, err, "read request")
		return
	}
	fail(c, h.logger, errs.Invalid("", "invalid request body: %v", err), "read request")
}
