package trace

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPattern = regexp.MustCompile(`^[a-f0-9\-]{36}$`)

func TestHeaderConstant(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "req-123", got)
}

func TestWithRequestIDIgnoresBlank(t *testing.T) {
	ctx := WithRequestID(context.Background(), "   ")
	_, ok := RequestIDFromContext(ctx)
	assert.False(t, ok)
}

func TestRequestIDFromNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is exercised on purpose
	_, ok := RequestIDFromContext(nil)
	assert.False(t, ok)
}

func TestEnsureRequestID(t *testing.T) {
	t.Run("keeps existing", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "existing")
		out, id := EnsureRequestID(ctx)
		assert.Equal(t, "existing", id)
		assert.Equal(t, ctx, out)
	})

	t.Run("generates when missing", func(t *testing.T) {
		ctx, id := EnsureRequestID(context.Background())
		assert.True(t, uuidPattern.MatchString(id))

		stored, ok := RequestIDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, id, stored)
	})

	t.Run("generated ids differ", func(t *testing.T) {
		_, a := EnsureRequestID(context.Background())
		_, b := EnsureRequestID(context.Background())
		assert.NotEqual(t, a, b)
	})
}
