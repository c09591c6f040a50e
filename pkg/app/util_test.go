package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlignedDelay(t *testing.T) {
	now := time.Date(2022, 1, 3, 10, 0, 12, 0, time.UTC)
	assert.Equal(t, 18*time.Second, alignedDelay(now, 30*time.Second))

	now = time.Date(2022, 1, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Second, alignedDelay(now, 30*time.Second))
}
