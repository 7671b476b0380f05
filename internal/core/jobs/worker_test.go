package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffGrowsAndCaps(t *testing.T) {
	assert.Equal(t, 60*time.Second, backoff(1))
	assert.Equal(t, 120*time.Second, backoff(2))
	assert.Equal(t, 240*time.Second, backoff(3))
	assert.Equal(t, 30*time.Minute, backoff(12), "backoff is capped")
}

func TestUnknownTypeError(t *testing.T) {
	err := errUnknownType("mystery")
	assert.Contains(t, err.Error(), "mystery")
}
