package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUnwrapsToKind(t *testing.T) {
	err := New(ErrConflict, "request already sent to %s", "42")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "request already sent to 42", err.Error())
}

func TestCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{New(ErrInvalidArgument, "x"), "invalid_argument", http.StatusBadRequest},
		{New(ErrInvalidOperation, "x"), "invalid_operation", http.StatusBadRequest},
		{New(ErrConflict, "x"), "conflict", http.StatusBadRequest},
		{New(ErrForbidden, "x"), "forbidden", http.StatusBadRequest},
		{New(ErrNotFound, "x"), "not_found", http.StatusBadRequest},
		{New(ErrUnauthorized, "x"), "unauthorized", http.StatusUnauthorized},
		{errors.New("connection reset"), "internal", http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			assert.Equal(t, tc.code, Code(tc.err))
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
		})
	}
}

func TestWrappedDomainErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("send request: %w", New(ErrForbidden, "blocked"))

	assert.True(t, IsDomain(err))
	assert.Equal(t, "forbidden", Code(err))
	assert.False(t, IsDomain(errors.New("boom")))
}
