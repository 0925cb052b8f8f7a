package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("loading beat: %w", NotFound("beat %s not found", "b-1"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "loading beat: beat b-1 not found", err.Error())
}

func TestUnavailableKeepsUpstreamMessage(t *testing.T) {
	t.Parallel()

	upstream := errors.New("dial tcp 10.0.0.1:3306: connection refused")
	err := Unavailable("list beats", upstream)

	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, upstream)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestKindOfForeignError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, 400},
		{KindInvalidFile, 415},
		{KindFileTooLarge, 413},
		{KindNotFound, 404},
		{KindUnavailable, 503},
		{KindStorageUnavailable, 503},
		{KindUnauthorized, 401},
		{KindForbidden, 403},
		{KindUnknown, 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Status(tt.kind), string(tt.kind))
	}
}
