package api

import (
	"errors"
	"fmt"
	"net/http"

	"study-assistant/internal/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case apperrors.KindEmptyDocument, apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindModelUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.KindInferenceFailure:
		return http.StatusBadGateway
	case apperrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(kind apperrors.Kind, err error) string {
	switch kind {
	case apperrors.KindUnsupportedFormat:
		return apperrors.UnsupportedFormatMessage
	case apperrors.KindEmptyDocument:
		return "Please upload a document first"
	case apperrors.KindNotFound:
		return "Session not found"
	case apperrors.KindUnknown:
		return "Internal server error"
	default:
		return err.Error()
	}
}

// handleServiceError maps an error from the service layer to a response.
func handleServiceError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Str("kind", kind.String()).Msg("Request failed")
	} else {
		log.Debug().Err(err).Str("path", c.FullPath()).Str("kind", kind.String()).Msg("Request rejected")
	}

	resp := ErrorResponse{Message: messageFor(kind, err), Code: kind.String()}
	if kind == apperrors.KindInferenceFailure || kind == apperrors.KindModelUnavailable {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string, details interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Message: message,
		Code:    apperrors.KindInvalidInput.String(),
		Details: details,
	})
}

// validationDetails converts validator errors into per-field messages.
func validationDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "numeric":
		return "must be a number"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}
