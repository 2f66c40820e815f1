// Package httputil writes the {status, message, data} response envelope.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Status: StatusSuccess, Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: StatusError, Message: message}
}

// RespondWithSuccess sends a 200 success envelope
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondWithStatus sends a success envelope with a custom status and message.
func RespondWithStatus(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, &Response{Status: StatusSuccess, Message: message, Data: data})
}

// RespondWithError maps err to a status and message and aborts the chain.
func RespondWithError(c *gin.Context, err error) {
	status, message, data := Describe(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, &Response{
		Status:  StatusError,
		Message: message,
		Data:    data,
		TraceID: c.GetString("request_id"),
	})
}

// Describe returns the HTTP status, the user-facing message and optional
// detail for err.
func Describe(err error) (int, string, interface{}) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return http.StatusBadRequest, "Validation failed", fields
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, "Malformed request body", nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "Request body too large", nil
	}

	if appErr, ok := apperrors.As(err); ok {
		msg := appErr.Message
		if appErr.Code == apperrors.ErrInternal {
			msg = "Internal server error"
		}
		return appErr.StatusCode(), msg, nil
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		return status, apiErr.Message, nil
	}
	if errors.Is(err, apiclient.ErrUnavailable) {
		return http.StatusServiceUnavailable, apiclient.ErrUnavailable.Error(), nil
	}

	return http.StatusInternalServerError, "Internal server error", nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "appointment_status", "status_filter":
		return "Unknown appointment status"
	case "appointment_type":
		return "Unknown appointment type"
	}
	return fmt.Sprintf("Failed on %s", fe.Tag())
}
