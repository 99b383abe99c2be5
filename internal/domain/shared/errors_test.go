package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("message is the error string", func(t *testing.T) {
		err := NewDomainError("METER_INACTIVE", "Meter is no longer active")
		assert.Equal(t, "Meter is no longer active", err.Error())
		assert.Equal(t, "METER_INACTIVE", err.Code)
	})

	t.Run("sentinels unwrap to their codes", func(t *testing.T) {
		cases := map[string]error{
			"NOT_FOUND":            ErrNotFound,
			"ALREADY_EXISTS":       ErrAlreadyExists,
			"INVALID_INPUT":        ErrInvalidInput,
			"CONCURRENCY_CONFLICT": ErrConcurrencyConflict,
			"UNAUTHORIZED":         ErrUnauthorized,
			"FORBIDDEN":            ErrForbidden,
			"INVALID_STATE":        ErrInvalidState,
		}
		for code, sentinel := range cases {
			var domainErr *DomainError
			require.True(t, errors.As(sentinel, &domainErr), code)
			assert.Equal(t, code, domainErr.Code)
		}
	})
}

func TestBaseEntityTouch(t *testing.T) {
	e := NewBaseEntity()
	created := e.CreatedAt
	before := e.UpdatedAt

	e.Touch()

	assert.Equal(t, created, e.CreatedAt)
	assert.False(t, e.UpdatedAt.Before(before))
	assert.NotEqual(t, e.ID.String(), "00000000-0000-0000-0000-000000000000")
}
