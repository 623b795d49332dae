package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// pipelinePhases is the fixed phase sequence of one split run.
var pipelinePhases = []string{"scan", "boundaries", "categorize", "assemble", "verify", "commit"}

// phaseReporter renders pipeline phase progress as a bar, unless quiet.
type phaseReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

func newPhaseReporter(quiet bool) *phaseReporter {
	r := &phaseReporter{quiet: quiet}
	if quiet {
		return r
	}
	r.bar = progressbar.NewOptions(len(pipelinePhases),
		progressbar.OptionSetDescription("Splitting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	return r
}

// OnPhase advances the bar and names the phase just finished.
func (r *phaseReporter) OnPhase(phase string) {
	if r.quiet || r.bar == nil {
		return
	}
	r.bar.Describe(fmt.Sprintf("Splitting (%s)", phase))
	r.bar.Add(1)
}

// Finish closes out the bar; safe to call after a failed run.
func (r *phaseReporter) Finish() {
	if r.quiet || r.bar == nil {
		return
	}
	r.bar.Finish()
}
