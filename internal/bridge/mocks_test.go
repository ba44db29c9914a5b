package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// recordedCall is one request seen by a mock controller.
type recordedCall struct {
	RequestType string
	Params      map[string]any
}

// mockController implements Controller with canned responses. When scenes
// is non-nil it also behaves like OBS for scene switching.
type mockController struct {
	mu        sync.Mutex
	calls     []recordedCall
	responses map[string]any
	failures  map[string]error

	scenes  []string
	current string
}

func newMockController() *mockController {
	return &mockController{
		responses: make(map[string]any),
		failures:  make(map[string]error),
	}
}

func (m *mockController) withScenes(current string, scenes ...string) *mockController {
	m.scenes = scenes
	m.current = current
	return m
}

func (m *mockController) Call(_ context.Context, requestType string, params, result any) error {
	var fields map[string]any
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, recordedCall{RequestType: requestType, Params: fields})

	if err, ok := m.failures[requestType]; ok {
		return err
	}

	resp, ok := m.responses[requestType]
	if m.scenes != nil {
		switch requestType {
		case obsws.RequestGetSceneList:
			list := obsws.SceneList{CurrentScene: m.current}
			for _, s := range m.scenes {
				list.Scenes = append(list.Scenes, obsws.Scene{Name: s})
			}
			resp, ok = list, true
		case obsws.RequestGetCurrentScene:
			resp, ok = obsws.CurrentScene{Name: m.current}, true
		case obsws.RequestSetCurrentScene:
			name, _ := fields["scene-name"].(string)
			if !slices.Contains(m.scenes, name) {
				return &obsws.RequestError{RequestType: requestType, Reason: obsws.ReasonSceneNotFound}
			}
			m.current = name
		}
	}

	if result != nil && ok {
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, result)
	}
	return nil
}

func (m *mockController) getCalls() []recordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]recordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// callsOf returns the recorded calls of one request type.
func (m *mockController) callsOf(requestType string) []recordedCall {
	var out []recordedCall
	for _, c := range m.getCalls() {
		if c.RequestType == requestType {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockController) requestTypes() []string {
	var out []string
	for _, c := range m.getCalls() {
		out = append(out, c.RequestType)
	}
	return out
}

func (m *mockController) reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

func (m *mockController) currentScene() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// mockCueSender implements CueSender.
type mockCueSender struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
}

func (m *mockCueSender) SendMessage(address string, args ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	if len(args) != 0 {
		return fmt.Errorf("unexpected cue args %v", args)
	}
	m.sent = append(m.sent, address)
	return nil
}

func (m *mockCueSender) getSent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu        sync.Mutex
	published []mockPublish
	connected bool
	handlers  map[string]func(topic string, payload []byte)
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte)),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, _ byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) GetPublished(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// SimulateMessage simulates receiving an MQTT message on a topic.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if ok {
		handler(topic, payload)
	}
}

// connected is a ConnectionStatus stub.
type connected bool

func (c connected) IsConnected() bool { return bool(c) }

// memoryRecorder implements Recorder in memory.
type memoryRecorder struct {
	mu       sync.Mutex
	commands []CommandRecord
	cues     []CueRecord
	events   []EventRecord
}

func (r *memoryRecorder) RecordCommand(rec CommandRecord) {
	r.mu.Lock()
	r.commands = append(r.commands, rec)
	r.mu.Unlock()
}

func (r *memoryRecorder) RecordCue(rec CueRecord) {
	r.mu.Lock()
	r.cues = append(r.cues, rec)
	r.mu.Unlock()
}

func (r *memoryRecorder) RecordEvent(rec EventRecord) {
	r.mu.Lock()
	r.events = append(r.events, rec)
	r.mu.Unlock()
}

func (r *memoryRecorder) getCommands() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandRecord, len(r.commands))
	copy(out, r.commands)
	return out
}

// createTestBridge creates a bridge around ctrl and stops it on cleanup.
func createTestBridge(t *testing.T, opts BridgeOptions) *Bridge {
	t.Helper()
	b, err := NewBridge(opts)
	if err != nil {
		t.Fatalf("NewBridge() error: %v", err)
	}
	t.Cleanup(b.Stop)
	return b
}

// run routes and executes one command synchronously.
func run(t *testing.T, b *Bridge, address string, args ...any) error {
	t.Helper()
	msg, err := NewInboundMessage(address, args)
	if err != nil {
		return err
	}
	route, ok := b.router.Match(msg)
	if !ok {
		return ErrUnrecognizedCommand
	}
	return route.Handle(context.Background(), b, msg)
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func rawEvent(t *testing.T, updateType string, fields map[string]any) obsws.Event {
	t.Helper()
	body := map[string]any{"update-type": updateType}
	for k, v := range fields {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return obsws.Event{Type: updateType, Raw: data}
}
