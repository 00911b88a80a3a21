package torrent

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/stretchr/testify/assert"
)

func TestLimitAttempts(t *testing.T) {
	for _, attempts := range []int{-1, 0, 1} {
		b := limitAttempts(context.Background(), &backoff.ZeroBackOff{}, attempts)
		assert.Equal(t, backoff.Stop, b.NextBackOff(), "attempts: %d", attempts)
	}

	b := limitAttempts(context.Background(), &backoff.ZeroBackOff{}, 3)
	assert.Equal(t, time.Duration(0), b.NextBackOff())
	assert.Equal(t, time.Duration(0), b.NextBackOff())
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestLimitAttemptsSingleRun(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		return &HashMismatchError{Index: 1}
	}
	err := backoff.Retry(op, limitAttempts(context.Background(), &backoff.ZeroBackOff{}, DefaultConfig.Download.MaxAttempts))
	assert.IsType(t, &HashMismatchError{}, err)
	assert.Equal(t, 1, calls)
}
