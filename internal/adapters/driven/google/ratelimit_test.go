package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_WaitWithinBurst(t *testing.T) {
	r := NewRateLimiter(ServiceCalendar)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The first requests fit inside the burst and must not block.
	start := time.Now()
	for i := 0; i < DefaultRateLimits[ServiceCalendar].BurstSize; i++ {
		require.NoError(t, r.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	r := NewRateLimiter(ServiceGmail)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Drain the burst first so the next wait would actually block.
	for i := 0; i < DefaultRateLimits[ServiceGmail].BurstSize; i++ {
		_ = r.Wait(context.Background())
	}
	assert.Error(t, r.Wait(ctx))
}

func TestNewRateLimiter_UnknownService(t *testing.T) {
	r := NewRateLimiter(ServiceType("unknown"))
	require.NotNil(t, r)
	assert.NoError(t, r.Wait(context.Background()))
}
