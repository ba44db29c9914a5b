package bridge

import "time"

// Command sources.
const (
	SourceOSC  = "osc"
	SourceMQTT = "mqtt"
)

// Command outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeDropped      = "dropped"
	OutcomeUnrecognized = "unrecognized"
	OutcomeInvalid      = "invalid"
)

// CommandRecord describes the outcome of one inbound command.
type CommandRecord struct {
	Time     time.Time
	Source   string
	Route    string
	Address  string
	Args     string
	Outcome  string
	Error    string
	Duration time.Duration
}

// CueRecord describes one outbound cue trigger.
type CueRecord struct {
	Time    time.Time
	Trigger string // OBS event type that fired the cue
	Scene   string
	Token   string
	Address string
	Error   string
}

// EventRecord describes one OBS event handled by the event bridge.
type EventRecord struct {
	Time       time.Time
	Type       string
	Scene      string
	Transition string
}

// Recorder observes bridge activity. Implementations must be safe for
// concurrent use and must not block for long; they run on command workers
// and the OBS event goroutine.
type Recorder interface {
	RecordCommand(rec CommandRecord)
	RecordCue(rec CueRecord)
	RecordEvent(rec EventRecord)
}

// Recorders fans records out to several recorders. Nil entries are skipped.
type Recorders []Recorder

// RecordCommand implements Recorder.
func (rs Recorders) RecordCommand(rec CommandRecord) {
	for _, r := range rs {
		if r != nil {
			r.RecordCommand(rec)
		}
	}
}

// RecordCue implements Recorder.
func (rs Recorders) RecordCue(rec CueRecord) {
	for _, r := range rs {
		if r != nil {
			r.RecordCue(rec)
		}
	}
}

// RecordEvent implements Recorder.
func (rs Recorders) RecordEvent(rec EventRecord) {
	for _, r := range rs {
		if r != nil {
			r.RecordEvent(rec)
		}
	}
}
