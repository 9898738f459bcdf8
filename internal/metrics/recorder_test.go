package metrics

import (
	"testing"
	"time"
)

// countingRecorder tallies stage observations through the Recorder interface.
type countingRecorder struct {
	NoopRecorder
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stageDurations: map[string]int{}, stageResults: map[string]map[ResultLabel]int{}}
}

func (c *countingRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	c.stageDurations[stage]++
}

func (c *countingRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := c.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		c.stageResults[stage] = m
	}
	m[result]++
}

func TestRecorderInterface(t *testing.T) {
	var r Recorder = newCountingRecorder()
	r.ObserveStageDuration("collect", time.Millisecond)
	r.IncStageResult("collect", ResultSuccess)
	r.IncStageResult("collect", ResultSuccess)

	c := r.(*countingRecorder)
	if c.stageDurations["collect"] != 1 {
		t.Fatalf("stage durations = %d", c.stageDurations["collect"])
	}
	if c.stageResults["collect"][ResultSuccess] != 2 {
		t.Fatalf("stage results = %v", c.stageResults)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopRecorder); !ok {
		t.Fatalf("expected NoopRecorder for nil")
	}
	c := newCountingRecorder()
	if OrNoop(c) != Recorder(c) {
		t.Fatalf("expected recorder passthrough")
	}
}
