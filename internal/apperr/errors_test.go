package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrRateLimitExceeded, http.StatusTooManyRequests},
		{ErrNotFound, http.StatusNotFound},
		{ErrMismatch, http.StatusBadRequest},
		{ErrExpired, http.StatusBadRequest},
		{ErrSlotUnavailable, http.StatusConflict},
		{ErrDeliveryFailure, http.StatusBadGateway},
		{ErrPersistenceFailure, http.StatusInternalServerError},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, StatusOf(tc.err), tc.err.Error())
	}
}

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrPersistenceFailure, "", cause)

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "PERSISTENCE_FAILURE", CodeOf(err))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "custom", MessageOf(New(ErrNotFound, "custom")))
	assert.Equal(t, "The code you entered is incorrect", MessageOf(ErrMismatch))
	assert.Equal(t, "An internal error occurred, please try again later", MessageOf(errors.New("db down")))
}
