package resource

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Promote(t *testing.T) {
	c := NewController(Config{MaxPromoteWorkers: 2})

	// Acquire both slots
	require.NoError(t, c.AcquirePromote(context.Background()))
	require.NoError(t, c.AcquirePromote(context.Background()))

	// Third must not be available
	assert.False(t, c.TryAcquirePromote())

	// Release one
	c.ReleasePromote()
	assert.True(t, c.TryAcquirePromote())
}

func TestController_PromoteDefault(t *testing.T) {
	c := NewController(Config{})

	// Defaults to a single slot
	assert.True(t, c.TryAcquirePromote())
	assert.False(t, c.TryAcquirePromote())
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// Within the burst, no waiting
	require.NoError(t, c.AcquireIO(context.Background(), 1024))
}

func TestController_IOCanceled(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 10})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Larger than the burst, so the wait must observe the canceled context
	assert.Error(t, c.AcquireIO(ctx, 25))
}

func TestController_IOUnlimited(t *testing.T) {
	c := NewController(Config{})
	require.NoError(t, c.AcquireIO(context.Background(), 1<<30))
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	require.NoError(t, c.AcquirePromote(context.Background()))
	assert.True(t, c.TryAcquirePromote())
	c.ReleasePromote()
	require.NoError(t, c.AcquireIO(context.Background(), 1024))
}

func TestRateLimitedWriter(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	var buf bytes.Buffer
	w := NewRateLimitedWriter(context.Background(), &buf, c)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	r := NewRateLimitedReader(context.Background(), bytes.NewReader([]byte("hello")), c)

	p := make([]byte, 5)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(p))
}
