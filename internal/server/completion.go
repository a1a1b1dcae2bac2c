package server

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// checkCompletion implements the Completion Detector (spec §4.6): once
// every worker is registered and delivered, it declares completion
// exactly once, prints the stats and renders the bitmap, and emits the
// same stats as one JSON line (SPEC_FULL.md supplement).
func (o *Orchestrator) checkCompletion() {
	if o.completed {
		return
	}
	if !o.reg.AllDelivered() {
		return
	}
	o.completed = true

	stats := o.Stats()
	fmt.Printf("total_handovers=%d messages_sent=%d messages_received=%d\n",
		stats.TotalHandovers, stats.MessagesSent, stats.MessagesReceived)
	fmt.Print(o.re.Canvas.Render())

	if buf, err := json.Marshal(stats); err == nil {
		o.log.Infof("completion stats: %s", string(buf))
	}
}

// Completed reports whether the completion detector has already fired.
func (o *Orchestrator) Completed() bool {
	return o.completed
}
