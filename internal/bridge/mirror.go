package bridge

import (
	"encoding/json"
	"sync"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// Publisher publishes MQTT messages.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Mirror republishes cues and scene switches to MQTT so other systems can
// follow the show. Publish failures are logged and otherwise ignored.
type Mirror struct {
	pub Publisher

	logger   Logger
	loggerMu sync.RWMutex
}

// NewMirror creates a mirror publishing through pub.
func NewMirror(pub Publisher) *Mirror {
	return &Mirror{pub: pub}
}

// RecordCommand implements Recorder. Commands are not mirrored.
func (m *Mirror) RecordCommand(CommandRecord) {}

// RecordCue publishes the cue to CueTopic.
func (m *Mirror) RecordCue(rec CueRecord) {
	payload, err := json.Marshal(CueMessage{
		Cue:       rec.Token,
		Address:   rec.Address,
		Scene:     rec.Scene,
		Trigger:   rec.Trigger,
		Sent:      rec.Error == "",
		Timestamp: rec.Time,
	})
	if err != nil {
		return
	}
	topic := CueTopic(rec.Token)
	if err := m.pub.Publish(topic, payload, 0, false); err != nil {
		m.logPublishError(topic, err)
	}
}

// RecordEvent publishes scene switches to SceneTopic (retained).
func (m *Mirror) RecordEvent(rec EventRecord) {
	if rec.Type != obsws.EventSwitchScenes {
		return
	}
	payload, err := json.Marshal(SceneMessage{
		Scene:     rec.Scene,
		Timestamp: rec.Time,
	})
	if err != nil {
		return
	}
	if err := m.pub.Publish(SceneTopic(), payload, 1, true); err != nil {
		m.logPublishError(SceneTopic(), err)
	}
}

// SetLogger sets the logger for publish failures.
func (m *Mirror) SetLogger(logger Logger) {
	m.loggerMu.Lock()
	m.logger = logger
	m.loggerMu.Unlock()
}

func (m *Mirror) logPublishError(topic string, err error) {
	m.loggerMu.RLock()
	logger := m.logger
	m.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn("mqtt mirror publish failed", "topic", topic, "error", err)
	}
}
