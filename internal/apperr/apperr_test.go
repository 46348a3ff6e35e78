package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("settle: %w", NotFound("Transaction not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Transaction not found", Message(err))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(cause)
	assert.Equal(t, "internal server error", Message(err))
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesKindAndMessage(t *testing.T) {
	sentinel := Conflict("Class is fully booked")
	assert.ErrorIs(t, fmt.Errorf("register: %w", Conflict("Class is fully booked")), sentinel)
	assert.NotErrorIs(t, Conflict("Already registered for this class"), sentinel)
	assert.NotErrorIs(t, Validation("Class is fully booked"), sentinel)
}
