// Package observability provides the sinks the engine reports analysis
// progress to.
package observability

import (
	"time"
)

// Observer receives branch and report lifecycle events.
// Implementations must be safe for concurrent use: branches report in parallel.
type Observer interface {
	BranchStarted(branch string)
	BranchFinished(branch string, duration time.Duration, err error)
	ReportCompleted(portfolio string, duration time.Duration, failed int)
}

// Nop discards every event
type Nop struct{}

func (Nop) BranchStarted(string)                        {}
func (Nop) BranchFinished(string, time.Duration, error) {}
func (Nop) ReportCompleted(string, time.Duration, int)  {}

// Multi fans events out to several observers in order
type Multi []Observer

// NewMulti combines observers, skipping nil entries.
func NewMulti(observers ...Observer) Multi {
	out := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m Multi) BranchStarted(branch string) {
	for _, o := range m {
		o.BranchStarted(branch)
	}
}

func (m Multi) BranchFinished(branch string, duration time.Duration, err error) {
	for _, o := range m {
		o.BranchFinished(branch, duration, err)
	}
}

func (m Multi) ReportCompleted(portfolio string, duration time.Duration, failed int) {
	for _, o := range m {
		o.ReportCompleted(portfolio, duration, failed)
	}
}
