package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/assignment"
	"github.com/propgraph/propgraph/pkg/errs"
	"github.com/propgraph/propgraph/pkg/eventbus"
	"github.com/propgraph/propgraph/pkg/model"
)

type AssignmentHandler struct {
	linker *assignment.Linker
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewAssignmentHandler(linker *assignment.Linker, bus *eventbus.Bus, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{linker: linker, bus: bus, logger: logger}
}

type assignmentRequest struct {
	EntityID   string `json:"entityId" binding:"required"`
	CustomerID string `json:"customerId" binding:"required"`
	EntityKind string `json:"entityKind" binding:"required"`
}

type linkFunc func(c *gin.Context, kind model.EntityKind, entityID, customerID uuid.UUID) (*assignment.Link, error)

func (h *AssignmentHandler) Add(c *gin.Context) {
	h.handle(c, "add customer", eventbus.TypeCustomerLinked, func(c *gin.Context, kind model.EntityKind, entityID, customerID uuid.UUID) (*assignment.Link, error) {
		return h.linker.AddCustomer(c.Request.Context(), kind, entityID, customerID)
	})
}

func (h *AssignmentHandler) Remove(c *gin.Context) {
	h.handle(c, "remove customer", eventbus.TypeCustomerUnlinked, func(c *gin.Context, kind model.EntityKind, entityID, customerID uuid.UUID) (*assignment.Link, error) {
		return h.linker.RemoveCustomer(c.Request.Context(), kind, entityID, customerID)
	})
}

func (h *AssignmentHandler) handle(c *gin.Context, action, eventType string, apply linkFunc) {
	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.logger, errs.Invalid("", "invalid request body: %v", err), action)
		return
	}
	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		fail(c, h.logger, errs.Invalid("entityId", "must be a valid id"), action)
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		fail(c, h.logger, errs.Invalid("customerId", "must be a valid id"), action)
		return
	}

	link, err := apply(c, model.EntityKind(req.EntityKind), entityID, customerID)
	if err != nil {
		fail(c, h.logger, err, action,
			zap.String("entity_id", req.EntityID), zap.String("customer_id", req.CustomerID))
		return
	}

	if link.EntityChanged || link.CustomerChanged {
		event := eventbus.AssignmentEvent{
			EntityID:   link.EntityID.String(),
			EntityKind: string(link.EntityKind),
			CustomerID: link.CustomerID.String(),
		}
		if err := h.bus.Emit(c.Request.Context(), eventbus.ChannelAssignment, eventType, event); err != nil {
			h.logger.Warn("Failed to publish assignment event", zap.Error(err))
		}
	}
	respond(c, http.StatusOK, "assignment updated", link)
}
