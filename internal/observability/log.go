package observability

import (
	"time"

	"github.com/rs/zerolog"
)

// LogObserver writes lifecycle events to a zerolog logger
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates a log observer tagged with the engine component.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{
		log: log.With().Str("component", "risk_engine").Logger(),
	}
}

func (o *LogObserver) BranchStarted(branch string) {
	o.log.Debug().Str("branch", branch).Msg("Branch started")
}

func (o *LogObserver) BranchFinished(branch string, duration time.Duration, err error) {
	if err != nil {
		o.log.Warn().
			Err(err).
			Str("branch", branch).
			Dur("duration", duration).
			Msg("Branch failed")
		return
	}
	o.log.Debug().
		Str("branch", branch).
		Dur("duration", duration).
		Msg("Branch finished")
}

func (o *LogObserver) ReportCompleted(portfolio string, duration time.Duration, failed int) {
	event := o.log.Info()
	if failed > 0 {
		event = o.log.Warn()
	}
	event.
		Str("portfolio", portfolio).
		Dur("duration", duration).
		Int("failed_branches", failed).
		Msg("Risk report completed")
}
