package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRespondErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, errors.New("pq: password authentication failed for user homenest"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp model.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error)
	assert.NotContains(t, resp.Message, "password")
}

func TestRespondErrorUsesKindMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, apperr.New(apperr.ErrForbidden, "Only the listing agent can do that"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp model.ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "FORBIDDEN", resp.Error)
	assert.Equal(t, "Only the listing agent can do that", resp.Message)
}

func TestValidationMessage(t *testing.T) {
	type form struct {
		Email   string `binding:"required,email"`
		OTPCode string `binding:"numeric"`
		Status  string `binding:"omitempty,oneof=scheduled cancelled"`
	}

	err := binding.Validator.ValidateStruct(&form{Email: "nobody", OTPCode: "12a", Status: "pending"})
	assert.Equal(t,
		"invalid email format, OTPCode must contain only numbers, Status must be one of: scheduled cancelled",
		validationMessage(err))

	assert.Equal(t, "Invalid request body", validationMessage(errors.New("unexpected EOF")))
}
