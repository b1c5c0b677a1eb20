package rtlog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetReturnsSameSingletonInstance(t *testing.T) {
	a := Get()
	b := Get()
	assert.Same(t, a, b)
}

func TestLoggingCallsDoNotPanic(t *testing.T) {
	logger := Get()
	assert.NotPanics(t, func() {
		logger.Info("component created", "path", "app.db")
		logger.Warn("provider claim unresolved", "module", "app")
		logger.Debug("resolving dependency", "key", "Shared[int]")
		logger.Error("service setup failed", "name", "cache", "error", errors.New("boom"))
	})
}

func TestLoggingToleratesOddKeyValueList(t *testing.T) {
	logger := Get()
	assert.NotPanics(t, func() {
		logger.Info("odd trailing arg", "key")
	})
}

func TestSetLevelGetLevelRoundTrip(t *testing.T) {
	original := GetLevel()
	defer SetLevel(original)

	SetLevel(original)
	assert.Equal(t, original, GetLevel())
}
