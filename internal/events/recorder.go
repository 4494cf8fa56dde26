package events

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var header = []string{"run_id", "id", "duration", "area", "event"}

// Recorder writes events as CSV rows tagged with a run id.
type Recorder struct {
	w     *csv.Writer
	runID string
	count int
}

// NewRecorder writes the header to w and returns a recorder for runID.
func NewRecorder(w io.Writer, runID string) (*Recorder, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return nil, fmt.Errorf("writing events header: %w", err)
	}
	return &Recorder{w: cw, runID: runID}, nil
}

// SetRunID tags subsequent rows with a new run id.
func (r *Recorder) SetRunID(runID string) {
	r.runID = runID
}

// Record appends events and flushes them.
func (r *Recorder) Record(events ...Event) error {
	for _, e := range events {
		row := []string{
			r.runID,
			strconv.Itoa(e.ID),
			strconv.FormatFloat(e.Duration, 'g', -1, 64),
			strconv.FormatFloat(e.Area, 'g', -1, 64),
			e.Kind.String(),
		}
		if err := r.w.Write(row); err != nil {
			return fmt.Errorf("writing event %d: %w", e.ID, err)
		}
		r.count++
	}
	r.w.Flush()
	return r.w.Error()
}

// Count returns the number of events recorded.
func (r *Recorder) Count() int {
	return r.count
}
