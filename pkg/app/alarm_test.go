package app

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tkdrob/goefergy/pkg/efergy"
)

func TestClassifyAlarm(t *testing.T) {
	assert.Equal(t, "api-call-limit", classifyAlarm(efergy.ErrAPICallLimit))
	assert.Equal(t, "invalid-token", classifyAlarm(efergy.ErrInvalidAuth))
	assert.Equal(t, "hub-service", classifyAlarm(efergy.ErrService))
	assert.Equal(t, "cloud-unreachable", classifyAlarm(fmt.Errorf("%w: dial tcp", efergy.ErrConnect)))
	assert.Equal(t, "poll-error", classifyAlarm(&efergy.DataError{Payload: []byte("x")}))
}
