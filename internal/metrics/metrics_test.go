package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.AddRecords(10, 2)
	c.AddJoinedLines(3)
	c.AddSkipped(ReasonError, 1)
	c.AddSkipped(ReasonMismatched, 0)
	c.ObserveFile(OutcomeSuccess, 20*time.Millisecond)
	c.ObserveFile(OutcomeFailure, time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(c.records))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.emptyLines))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.joinedLines))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.skippedRows.WithLabelValues(ReasonError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.AddRecords(4, 0)

	path := filepath.Join(t.TempDir(), "csvline.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "csvline_records_total 4")
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.AddRecords(1, 1)
	c.AddJoinedLines(1)
	c.AddSkipped("x", 1)
	c.ObserveFile(OutcomeSuccess, time.Second)
	assert.Nil(t, c.Registry())
	assert.NoError(t, c.WriteTextfile("unused"))
}
