package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("price must be positive"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("invalid credentials"), http.StatusUnauthorized},
		{"forbidden", Forbidden("not your item"), http.StatusForbidden},
		{"not found", NotFound("item not found"), http.StatusNotFound},
		{"conflict", Conflict("already liked"), http.StatusConflict},
		{"external", External("create checkout session", errors.New("card declined")), http.StatusBadGateway},
		{"timeout", External("create checkout session", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("order not found")), http.StatusNotFound},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestExternal_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := External("send email", cause)

	assert.True(t, errors.Is(err, ErrExternal))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Nil(t, External("noop", nil))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "item not found", PublicMessage(NotFound("item not found")))
	assert.Equal(t, "create checkout session failed", PublicMessage(External("create checkout session", errors.New("secret detail"))))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: relation does not exist")))
}
