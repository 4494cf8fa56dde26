package events

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed plays a phase of the given running fraction and area over [from, to).
func feed(d *Detector, from, to, running, area float64) []Event {
	var out []Event
	for t := from; t < to; t += 0.5 {
		out = append(out, d.Observe(Sample{Time: t, RunningFraction: running, HullArea: area})...)
	}
	return out
}

func TestDetectorCycle(t *testing.T) {
	d := NewDetector()
	assert.Equal(t, Packing, d.State())

	// first cycle only anchors the dispersing start
	assert.Empty(t, feed(d, 0, 5, 0.5, 400))
	assert.Empty(t, feed(d, 5, 10, 0.0, 300))
	assert.Equal(t, Dispersing, d.State())

	// dispersing from t=5 to t=20, then packing from 400 down to 200
	assert.Empty(t, feed(d, 10, 20, 0.0, 400))
	assert.Empty(t, feed(d, 20, 26, 0.8, 400))
	got := d.Observe(Sample{Time: 26, RunningFraction: 0, HullArea: 200})
	require.Len(t, got, 2)

	assert.Equal(t, Event{ID: 0, Duration: 15, Area: 400, Kind: Dispersing}, got[0])
	assert.Equal(t, Event{ID: 1, Duration: 6, Area: 200, Kind: Packing}, got[1])
}

func TestDetectorIgnoresWeakPacking(t *testing.T) {
	d := NewDetector()
	feed(d, 0, 2, 0.5, 400)
	feed(d, 2, 4, 0.0, 100) // anchors the dispersing start at t=2

	// the hull barely shrinks
	feed(d, 4, 10, 0.5, 400)
	assert.Empty(t, d.Observe(Sample{Time: 10, RunningFraction: 0, HullArea: 380}))

	// a later strong packing measures dispersing from the original anchor
	feed(d, 10, 12, 0.5, 500)
	got := d.Observe(Sample{Time: 12, RunningFraction: 0, HullArea: 100})
	require.Len(t, got, 2)
	assert.Equal(t, 8.0, got[0].Duration)
	assert.Equal(t, 500.0, got[0].Area)
}

func TestDetectorIgnoresShortDispersing(t *testing.T) {
	d := NewDetector()
	feed(d, 0, 2, 0.5, 400)
	feed(d, 2, 3, 0.0, 100) // anchor at t=2

	feed(d, 3, 4, 0.5, 400) // dispersed only for 1
	assert.Empty(t, d.Observe(Sample{Time: 4, RunningFraction: 0, HullArea: 100}))
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector()
	feed(d, 0, 2, 0.0, 10)
	d.Reset()
	assert.Equal(t, Packing, d.State())
}

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "run-a")
	require.NoError(t, err)

	require.NoError(t, rec.Record(
		Event{ID: 2, Duration: 15, Area: 400.5, Kind: Dispersing},
		Event{ID: 3, Duration: 6, Area: 200, Kind: Packing},
	))
	rec.SetRunID("run-b")
	require.NoError(t, rec.Record(Event{ID: 4, Duration: 1.25, Area: 0, Kind: Dispersing}))
	assert.Equal(t, 3, rec.Count())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"run_id", "id", "duration", "area", "event"},
		{"run-a", "2", "15", "400.5", "Dispersing"},
		{"run-a", "3", "6", "200", "Packing"},
		{"run-b", "4", "1.25", "0", "Dispersing"},
	}, rows)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "1,6,200,Packing", Event{ID: 1, Duration: 6, Area: 200, Kind: Packing}.String())
}
