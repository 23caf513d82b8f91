package camunda

import (
	"testing"
	"time"

	"biashara-bot/internal/common/config"

	"github.com/stretchr/testify/assert"
)

func TestResolveSettings(t *testing.T) {
	s := ResolveSettings(config.WorkerConfig{})
	assert.Equal(t, defaultMaxJobsActive, s.MaxJobsActive)
	assert.Equal(t, defaultJobTimeout, s.Timeout)

	s = ResolveSettings(config.WorkerConfig{MaxJobsActive: 2, Timeout: 1500})
	assert.Equal(t, 2, s.MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, s.Timeout)
}

func TestRequestTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, requestTimeout(config.CamundaConfig{}))
	assert.Equal(t, 250*time.Millisecond, requestTimeout(config.CamundaConfig{RequestTimeout: 250}))
}
