package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type kindError struct {
	kind string
}

func (e *kindError) Error() string { return "kind: " + e.kind }

func TestWrap(t *testing.T) {
	t.Run("PreservesChain", func(t *testing.T) {
		wrapped := Wrap(ErrNotFound, "domain not found")

		assert.EqualError(t, wrapped, "domain not found: not found")
		assert.True(t, Is(wrapped, ErrNotFound))
	})

	t.Run("NilError", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "ignored"))
	})
}

func TestWrapf(t *testing.T) {
	t.Run("FormatsMessage", func(t *testing.T) {
		wrapped := Wrapf(ErrConflict, "job %s already queued", "renewal:1")

		assert.EqualError(t, wrapped, "job renewal:1 already queued: conflict")
		assert.True(t, Is(wrapped, ErrConflict))
	})

	t.Run("NilError", func(t *testing.T) {
		assert.Nil(t, Wrapf(nil, "ignored %d", 1))
	})
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrForbidden,
		ErrTooManyRequests,
		ErrUpstream,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestAs(t *testing.T) {
	err := Wrap(&kindError{kind: "timeout"}, "registrar call")

	var target *kindError
	assert.True(t, As(err, &target))
	assert.Equal(t, "timeout", target.kind)
}

func TestJoin(t *testing.T) {
	other := errors.New("rollback failed")
	joined := Join(ErrUpstream, other)

	assert.True(t, Is(joined, ErrUpstream))
	assert.True(t, Is(joined, other))
}
