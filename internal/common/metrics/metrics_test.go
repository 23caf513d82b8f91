package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCodeLabel(t *testing.T) {
	assert.Equal(t, "ok", CodeLabel(""))
	assert.Equal(t, "NOT_FOUND", CodeLabel("NOT_FOUND"))
}

func TestMessagesHandled(t *testing.T) {
	c := MessagesHandled.WithLabelValues("stock", CodeLabel(""))
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
