package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name  string
	value int64
	dur   time.Duration
	tags  map[string]string
}

type recordingSink struct {
	counts  []recordedMetric
	timings []recordedMetric
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.counts = append(r.counts, recordedMetric{name: name, value: value, tags: tags})
}

func (r *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.timings = append(r.timings, recordedMetric{name: name, dur: value, tags: tags})
}

func TestEmitStageSuccess(t *testing.T) {
	sink := &recordingSink{}

	EmitStage(sink, StageMetric{
		Stage:    "facial_match",
		Result:   ResultSuccess,
		Duration: 250 * time.Millisecond,
	})

	require.Len(t, sink.counts, 1)
	require.Len(t, sink.timings, 1)

	assert.Equal(t, "pipeline.stage", sink.counts[0].name)
	assert.Equal(t, int64(1), sink.counts[0].value)
	assert.Equal(t, map[string]string{
		"stage":  "facial_match",
		"result": "success",
	}, sink.counts[0].tags)

	assert.Equal(t, "pipeline.stage_duration", sink.timings[0].name)
	assert.Equal(t, 250*time.Millisecond, sink.timings[0].dur)
}

func TestEmitStageTagsErrorClass(t *testing.T) {
	sink := &recordingSink{}

	EmitStage(sink, StageMetric{
		Stage:  "extract_text",
		Result: ResultError,
		Err:    errors.New("provider unreachable"),
	})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "error", sink.counts[0].tags["result"])
	assert.NotEmpty(t, sink.counts[0].tags["error_class"])
}

func TestEmitStageNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitStage(nil, StageMetric{Stage: "validate", Result: ResultSuccess})
	})
}
