// Package metrics translates pipeline events into StatsD emissions.
package metrics

import (
	"time"

	errclass "github.com/target/ekyc-verify/internal/observability/errors"
	"github.com/target/ekyc-verify/internal/observability/statsd"
)

// Tag values for the result dimension on stage metrics.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// StageMetric captures the outcome of a single pipeline stage execution.
type StageMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitStage records a count and timing for a completed pipeline stage.
// A nil sink makes this a no-op so callers never need to guard.
func EmitStage(sink statsd.Sink, m StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  m.Stage,
		"result": m.Result,
	}
	if m.Err != nil {
		tags["error_class"] = errclass.Classify(m.Err)
	}

	sink.Count("pipeline.stage", 1, tags)
	sink.Timing("pipeline.stage_duration", m.Duration, tags)
}
