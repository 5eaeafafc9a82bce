package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualTimeProvider(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewManualTimeProvider(start)

	assert.Equal(t, start, clock.Now())
	clock.Advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, clock.Since(start))

	var tp TimeProvider = DefaultTimeProvider{}
	assert.False(t, tp.Now().IsZero())
}
