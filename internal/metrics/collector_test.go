package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
)

type connected bool

func (c connected) IsConnected() bool { return bool(c) }

func TestRecordCommand(t *testing.T) {
	c := NewCollector()

	c.RecordCommand(bridge.CommandRecord{Route: "go", Outcome: bridge.OutcomeOK, Duration: 3 * time.Millisecond})
	c.RecordCommand(bridge.CommandRecord{Route: "go", Outcome: bridge.OutcomeOK})
	c.RecordCommand(bridge.CommandRecord{Route: "scene.index", Outcome: bridge.OutcomeError})
	c.RecordCommand(bridge.CommandRecord{Outcome: bridge.OutcomeUnrecognized})
	c.RecordCommand(bridge.CommandRecord{Route: "go", Outcome: bridge.OutcomeDropped})

	tests := []struct {
		route, outcome string
		want           float64
	}{
		{"go", "ok", 2},
		{"scene.index", "error", 1},
		{"none", "unrecognized", 1},
		{"go", "dropped", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(c.commands.WithLabelValues(tt.route, tt.outcome))
		if got != tt.want {
			t.Errorf("commands_total{route=%q,outcome=%q} = %v, want %v", tt.route, tt.outcome, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(c.commandsDropped); got != 1 {
		t.Errorf("commands_dropped_total = %v, want 1", got)
	}

	// Only executed commands are timed.
	if got := testutil.CollectAndCount(c.commandDuration); got != 2 {
		t.Errorf("command_duration_seconds series = %d, want 2", got)
	}
}

func TestRecordCueAndEvent(t *testing.T) {
	c := NewCollector()

	c.RecordCue(bridge.CueRecord{Token: "Q1"})
	c.RecordCue(bridge.CueRecord{Token: "Q2", Error: "send failed"})
	c.RecordEvent(bridge.EventRecord{Type: "SwitchScenes"})
	c.RecordEvent(bridge.EventRecord{Type: "SwitchScenes"})
	c.RecordEvent(bridge.EventRecord{Type: "TransitionBegin"})

	expected := `
# HELP obsosc_cues_total Outbound cues triggered by OBS scene changes.
# TYPE obsosc_cues_total counter
obsosc_cues_total 2
# HELP obsosc_cue_errors_total Cues whose OSC send failed.
# TYPE obsosc_cue_errors_total counter
obsosc_cue_errors_total 1
# HELP obsosc_events_total OBS events handled by the bridge, by type.
# TYPE obsosc_events_total counter
obsosc_events_total{type="SwitchScenes"} 2
obsosc_events_total{type="TransitionBegin"} 1
`
	err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected),
		"obsosc_cues_total", "obsosc_cue_errors_total", "obsosc_events_total")
	if err != nil {
		t.Error(err)
	}
}

func TestWatchConnection(t *testing.T) {
	c := NewCollector()

	if err := c.WatchConnection("obs", connected(true)); err != nil {
		t.Fatalf("WatchConnection(obs) error = %v", err)
	}
	if err := c.WatchConnection("mqtt", connected(false)); err != nil {
		t.Fatalf("WatchConnection(mqtt) error = %v", err)
	}
	if err := c.WatchConnection("obs", connected(true)); err == nil {
		t.Error("registering the same component twice should fail")
	}

	expected := `
# HELP obsosc_connected 1 when the component is connected.
# TYPE obsosc_connected gauge
obsosc_connected{component="mqtt"} 0
obsosc_connected{component="obs"} 1
`
	if err := testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "obsosc_connected"); err != nil {
		t.Error(err)
	}
}

func TestCollectorSatisfiesRecorder(t *testing.T) {
	var _ bridge.Recorder = NewCollector()
}
