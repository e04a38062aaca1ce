package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/middleware"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
	"github.com/homenest/homenest-api/pkg/logger"
	"go.uber.org/zap"
)

// respondError writes the status and polite message mapped from err.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, model.ErrorResponse{Error: apperr.CodeOf(err), Message: apperr.MessageOf(err)})
}

// respondBindError reports a request that failed binding or validation
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "INVALID_INPUT", Message: validationMessage(err)})
}

// validationMessage turns validator errors into one readable sentence
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "Invalid request body"
	}

	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_without":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, "invalid email format")
		case "min":
			messages = append(messages, field+" must be at least "+fe.Param()+" characters")
		case "max":
			messages = append(messages, field+" must be at most "+fe.Param()+" characters")
		case "numeric":
			messages = append(messages, field+" must contain only numbers")
		case "oneof":
			messages = append(messages, field+" must be one of: "+fe.Param())
		case "gt", "gte":
			messages = append(messages, field+" must be greater than "+orEqual(fe.Tag())+fe.Param())
		case "lte":
			messages = append(messages, field+" must be at most "+fe.Param())
		case "uuid":
			messages = append(messages, field+" must be a valid id")
		default:
			messages = append(messages, field+" is invalid")
		}
	}
	return strings.Join(messages, ", ")
}

func orEqual(tag string) string {
	if tag == "gte" {
		return "or equal to "
	}
	return ""
}

// actor builds the service actor from the authenticated request
func actor(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.CurrentUserID(c), Role: middleware.CurrentRole(c)}
}

// uuidParam parses a path parameter, answering 400 itself on failure
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "INVALID_INPUT", Message: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUID parses an optional query value; empty yields nil
func optionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperr.New(apperr.ErrInvalidInput, "Invalid id")
	}
	return &id, nil
}
