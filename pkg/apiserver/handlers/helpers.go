package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/propgraph/propgraph/pkg/errs"
)

// response is the envelope every endpoint answers with.
type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, response{Success: true, Message: message, Data: data})
}

func reject(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response{Success: false, Message: message})
}

// fail maps err onto a status code. Client errors carry their own message;
// anything else is logged and answered with a generic one.
func fail(c *gin.Context, logger *zap.Logger, err error, action string, fields ...zap.Field) {
	var tooLarge *http.MaxBytesError
	switch {
	case errs.IsValidation(err), errors.Is(err, errs.ErrInvalidFormat):
		reject(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		reject(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		reject(c, http.StatusConflict, err.Error())
	case errors.As(err, &tooLarge):
		reject(c, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("Operation timed out", append(fields, zap.String("action", action), zap.Error(err))...)
		reject(c, http.StatusGatewayTimeout, "failed to "+action+": timed out")
	default:
		logger.Error("Operation failed", append(fields, zap.String("action", action), zap.Error(err))...)
		reject(c, http.StatusInternalServerError, "failed to "+action)
	}
}

func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errs.Invalid("id", "must be a valid id")
	}
	return id, nil
}
