package handlers

import (
	"net/http"
	"strings"

	"github.com/dhruvbantval/3128-odyssey/internal/errors"
	"github.com/dhruvbantval/3128-odyssey/internal/logger"

	"github.com/gin-gonic/gin"
)

const fallbackMessage = "Something went wrong"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrValidation, errors.ErrInvalidArgument, errors.ErrUnsupportedFormat:
		return http.StatusBadRequest
	case errors.ErrResourceNotFound:
		return http.StatusNotFound
	case errors.ErrConfirmationRequired:
		return http.StatusConflict
	case errors.ErrUpstream:
		return http.StatusBadGateway
	case errors.ErrTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its code maps to. Messages are
// surfaced verbatim.
func respondError(c *gin.Context, action string, err error) {
	code := errors.CodeOf(err)
	status := statusFor(code)

	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = fallbackMessage
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorWithCode(err).Str("path", c.Request.URL.Path).Msg(action)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   action,
		Message: message,
		Code:    string(code),
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid request",
		Message: message,
		Code:    string(errors.ErrValidation),
	})
}
