package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/clinic-service/internal/services"
	"github.com/SAP-F-2025/clinic-service/internal/utils"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps responses that carry a message alongside data
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs at debug level through the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, append(args, "path", c.FullPath())...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Error(msg, append(args, "error", err)...)
}

func (h *BaseHandler) RespondWithError(c *gin.Context, status int, msg string, err error) {
	resp := ErrorResponse{Message: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// statusForKind is the HTTP status for each failure kind
var statusForKind = map[services.ErrorKind]int{
	services.KindNotFound:         http.StatusNotFound,
	services.KindPastDateTime:     http.StatusBadRequest,
	services.KindSlotConflict:     http.StatusConflict,
	services.KindAlreadyCanceled:  http.StatusConflict,
	services.KindAlreadyCompleted: http.StatusConflict,
	services.KindForbidden:        http.StatusForbidden,
	services.KindValidation:       http.StatusBadRequest,
	services.KindUnauthorized:     http.StatusUnauthorized,
	services.KindConflict:         http.StatusConflict,
	services.KindInternal:         http.StatusInternalServerError,
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusForKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(status, ErrorResponse{
			Message: "Validation failed",
			Code:    string(kind),
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(status, ErrorResponse{
			Message: businessRuleError.Message,
			Code:    string(kind),
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(status, ErrorResponse{
			Message: "Access denied",
			Code:    string(kind),
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	if kind == services.KindInternal {
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    string(kind),
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Message: err.Error(),
		Code:    string(kind),
	})
}
