package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 4)
	r.now = func() time.Time { return r.start.Add(3 * time.Second) }

	r.Tick(0, time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC))
	out := buf.String()
	assert.Contains(t, out, "tick 1/4 (25%)")
	assert.Contains(t, out, "2020-01-01T01:00:00Z")
	assert.Contains(t, out, "3 seconds elapsed")
}

func TestDoneOutput(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, 1000)
	r.now = func() time.Time { return r.start.Add(time.Minute) }

	r.Done()
	assert.Contains(t, buf.String(), "run complete: 1,000 ticks")
}

func TestNilReporterIsSilent(t *testing.T) {
	var r *Reporter
	require.NotPanics(t, func() {
		r.Tick(0, time.Now())
		r.Done()
	})
}
