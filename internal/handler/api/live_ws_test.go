package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xlogger "github.com/J-Mash24/worldz1/pkg/logger"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestLiveStreamerUsesConfiguredInterval(t *testing.T) {
	s := newLiveStreamer(testLogger(t), nil, 2*time.Second)
	assert.Equal(t, 2*time.Second, s.interval)
}

func TestLiveStreamerDefaultsInterval(t *testing.T) {
	s := newLiveStreamer(testLogger(t), nil, 0)
	assert.Equal(t, defaultStreamInterval, s.interval)
}
