package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// EventBridge turns OBS scene and transition events into OSC cue triggers.
//
// SwitchTransition events update the transition cache whether or not cues
// are enabled. With a Cut active, cues fire on SwitchScenes; with any other
// transition they fire on TransitionBegin, so each scene change triggers at
// most one cue.
//
// Events must be delivered from a single goroutine in arrival order.
type EventBridge struct {
	state    *TransitionState
	cues     CueSender
	enabled  bool
	recorder Recorder

	cuesSent  atomic.Uint64
	cueErrors atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// NewEventBridge creates an event bridge. cues may be nil when enabled is
// false.
func NewEventBridge(state *TransitionState, cues CueSender, enabled bool) *EventBridge {
	if state == nil {
		state = NewTransitionState()
	}
	return &EventBridge{
		state:   state,
		cues:    cues,
		enabled: enabled && cues != nil,
	}
}

// State returns the transition cache.
func (e *EventBridge) State() *TransitionState {
	return e.state
}

// Enabled reports whether cue triggering is on.
func (e *EventBridge) Enabled() bool {
	return e.enabled
}

// SetRecorder sets the recorder for events and cues.
func (e *EventBridge) SetRecorder(r Recorder) {
	e.recorder = r
}

// SetLogger sets the logger for this event bridge.
func (e *EventBridge) SetLogger(logger Logger) {
	e.loggerMu.Lock()
	e.logger = logger
	e.loggerMu.Unlock()
}

// HandleEvent processes one OBS event. Unknown event types are ignored.
func (e *EventBridge) HandleEvent(ev obsws.Event) {
	switch ev.Type {
	case obsws.EventSwitchScenes:
		var body obsws.SwitchScenesEvent
		if err := ev.Decode(&body); err != nil {
			e.logError("decode SwitchScenes", err)
			return
		}
		e.record(EventRecord{Type: ev.Type, Scene: body.SceneName})

		if e.enabled && e.state.IsCut() {
			e.logInfo("scene change", "scene", body.SceneName, "transition", e.state.Current())
			e.trigger(ev.Type, body.SceneName)
		}

	case obsws.EventTransitionBegin:
		var body obsws.TransitionBeginEvent
		if err := ev.Decode(&body); err != nil {
			e.logError("decode TransitionBegin", err)
			return
		}
		e.record(EventRecord{Type: ev.Type, Scene: body.ToScene, Transition: body.Name})

		if e.enabled && !e.state.IsCut() {
			e.logInfo("transition started", "scene", body.ToScene, "transition", e.state.Current())
			e.trigger(ev.Type, body.ToScene)
		}

	case obsws.EventSwitchTransition:
		var body obsws.SwitchTransitionEvent
		if err := ev.Decode(&body); err != nil {
			e.logError("decode SwitchTransition", err)
			return
		}
		e.state.Set(body.TransitionName)
		e.record(EventRecord{Type: ev.Type, Transition: body.TransitionName})
		e.logInfo("transition changed", "transition", body.TransitionName)
	}
}

// trigger sends the cue embedded in sceneName, if any. Send failures are
// logged and not retried.
func (e *EventBridge) trigger(eventType, sceneName string) {
	token, ok := ExtractCueToken(sceneName)
	if !ok {
		return
	}

	address := CueAddress(token)
	rec := CueRecord{
		Time:    time.Now().UTC(),
		Trigger: eventType,
		Scene:   sceneName,
		Token:   token,
		Address: address,
	}

	if err := e.cues.SendMessage(address); err != nil {
		e.cueErrors.Add(1)
		rec.Error = err.Error()
		e.logError("cue send failed", fmt.Errorf("%s: %w", address, err))
	} else {
		e.cuesSent.Add(1)
		e.logInfo("cue triggered", "cue", token, "address", address)
	}

	if e.recorder != nil {
		e.recorder.RecordCue(rec)
	}
}

func (e *EventBridge) record(rec EventRecord) {
	if e.recorder == nil {
		return
	}
	rec.Time = time.Now().UTC()
	e.recorder.RecordEvent(rec)
}

func (e *EventBridge) logInfo(msg string, keysAndValues ...any) {
	e.loggerMu.RLock()
	logger := e.logger
	e.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (e *EventBridge) logError(msg string, err error) {
	e.loggerMu.RLock()
	logger := e.logger
	e.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
