package main

import (
	"time"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/mqtt"
)

// mqttPublisher is the part of *mqtt.Client the bridge adapter needs.
type mqttPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The primary difference is the Subscribe handler signature:
// - Infrastructure mqtt: func(topic, payload []byte) error
// - Bridge expects: func(topic, payload []byte)
type mqttBridgeAdapter struct {
	client mqttPublisher
}

// Publish implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}

// telemetryWriter is the part of *influxdb.Client the recorder uses.
type telemetryWriter interface {
	WriteCommand(at time.Time, source, route, outcome, address string, took time.Duration)
	WriteCue(at time.Time, trigger, scene, token string, failed bool)
	WriteEvent(at time.Time, eventType, scene string)
}

var _ telemetryWriter = (*influxdb.Client)(nil)

// influxRecorder writes bridge records as InfluxDB points.
type influxRecorder struct {
	client telemetryWriter
}

// RecordCommand implements bridge.Recorder.
func (r *influxRecorder) RecordCommand(rec bridge.CommandRecord) {
	r.client.WriteCommand(rec.Time, rec.Source, rec.Route, rec.Outcome, rec.Address, rec.Duration)
}

// RecordCue implements bridge.Recorder.
func (r *influxRecorder) RecordCue(rec bridge.CueRecord) {
	r.client.WriteCue(rec.Time, rec.Trigger, rec.Scene, rec.Token, rec.Error != "")
}

// RecordEvent implements bridge.Recorder.
func (r *influxRecorder) RecordEvent(rec bridge.EventRecord) {
	r.client.WriteEvent(rec.Time, rec.Type, rec.Scene)
}
