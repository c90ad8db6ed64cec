package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, "2xx", classifyStatus(200))
	assert.Equal(t, "4xx", classifyStatus(404))
	assert.Equal(t, "5xx", classifyStatus(503))
	assert.Equal(t, "error", classifyStatus(0))
	assert.Equal(t, "unknown", classifyStatus(999))
}

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(fetchRequestsTotal.WithLabelValues("test", "5xx"))
	RecordFetch("test", 502, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(fetchRequestsTotal.WithLabelValues("test", "5xx")))

	RecordStored("test", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(offersStored.WithLabelValues("test")))
}
