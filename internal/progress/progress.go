// Package progress prints a line per simulation tick for long runs.
package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter writes one line per completed tick. A nil Reporter is silent, so
// callers can pass it around unconditionally.
type Reporter struct {
	w     io.Writer
	total int
	start time.Time
	now   func() time.Time
}

// New builds a reporter for a run of total ticks.
func New(w io.Writer, total int) *Reporter {
	return &Reporter{w: w, total: total, start: time.Now(), now: time.Now}
}

// Tick reports a completed tick and the simulation time it advanced to.
func (r *Reporter) Tick(timeIndex int, simTime time.Time) {
	if r == nil {
		return
	}
	done := timeIndex + 1
	fmt.Fprintf(r.w, "tick %s/%s (%d%%) sim time %s, %s\n",
		humanize.Comma(int64(done)),
		humanize.Comma(int64(r.total)),
		done*100/r.total,
		simTime.Format(time.RFC3339),
		humanize.RelTime(r.start, r.now(), "elapsed", ""),
	)
}

// Done reports the end of the run.
func (r *Reporter) Done() {
	if r == nil {
		return
	}
	fmt.Fprintf(r.w, "run complete: %s ticks, %s\n",
		humanize.Comma(int64(r.total)),
		humanize.RelTime(r.start, r.now(), "elapsed", ""),
	)
}
