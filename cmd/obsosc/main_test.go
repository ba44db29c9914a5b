package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/nerrad567/obs-osc-bridge/internal/bridge"
	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/mqtt"
)

// fakeOBS answers every obs-websocket request with status ok.
type fakeOBS struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []string
	conn     *websocket.Conn
}

func newFakeOBS(t *testing.T) *fakeOBS {
	t.Helper()

	f := &fakeOBS{}
	upgrader := websocket.Upgrader{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req map[string]any
			if json.Unmarshal(data, &req) != nil {
				continue
			}
			reqType, _ := req["request-type"].(string)
			f.mu.Lock()
			f.requests = append(f.requests, reqType)
			f.mu.Unlock()

			resp := map[string]any{"message-id": req["message-id"], "status": "ok"}
			switch reqType {
			case "GetAuthRequired":
				resp["authRequired"] = false
			case "GetVersion":
				resp["obs-studio-version"] = "27.2.4"
				resp["obs-websocket-version"] = "4.9.1"
			case "GetCurrentTransition":
				resp["name"] = "Fade"
			}
			//nolint:errcheck // test server
			conn.WriteJSON(resp)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOBS) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeOBS) sawRequest(reqType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == reqType {
			return true
		}
	}
	return false
}

// dropConnection closes the server side of the websocket.
func (f *fakeOBS) dropConnection() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn != nil {
		f.conn.Close()
	}
}

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T, network string) int {
	t.Helper()
	switch network {
	case "udp":
		pc, err := net.ListenPacket("udp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen udp: %v", err)
		}
		defer pc.Close()
		return pc.LocalAddr().(*net.UDPAddr).Port
	default:
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen tcp: %v", err)
		}
		defer ln.Close()
		return ln.Addr().(*net.TCPAddr).Port
	}
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("OBSOSC_CONFIG", path)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("OBSOSC_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("OBSOSC_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with a missing or invalid config.
func TestRun_InvalidConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("OBSOSC_CONFIG", "/nonexistent/path/config.yaml")
		if err := run(context.Background()); err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Fatalf("run() error = %v, want loading config error", err)
		}
	})

	t.Run("bad obs url", func(t *testing.T) {
		writeConfig(t, "obs:\n  url: \"http://localhost:4444\"\n")
		if err := run(context.Background()); err == nil || !strings.Contains(err.Error(), "obs.url") {
			t.Fatalf("run() error = %v, want obs.url validation error", err)
		}
	})
}

// TestRun_OBSUnreachable verifies startup fails when OBS cannot be dialled.
func TestRun_OBSUnreachable(t *testing.T) {
	writeConfig(t, fmt.Sprintf(`
obs:
  url: "ws://127.0.0.1:%d"
  connect_timeout: 2
osc:
  listen:
    host: "127.0.0.1"
    port: %d
logging:
  level: error
`, freePort(t, "tcp"), freePort(t, "udp")))

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connecting to OBS") {
		t.Fatalf("run() error = %v, want connecting to OBS", err)
	}
}

// TestRun_SuccessfulStartupAndShutdown starts the whole process against a
// fake OBS with the journal and HTTP server enabled.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	obs := newFakeOBS(t)
	oscPort := freePort(t, "udp")
	httpPort := freePort(t, "tcp")
	dbPath := filepath.Join(t.TempDir(), "journal.db")

	writeConfig(t, fmt.Sprintf(`
obs:
  url: %q
osc:
  listen:
    host: "127.0.0.1"
    port: %d
  send:
    host: "127.0.0.1"
    port: %d
database:
  enabled: true
  path: %q
metrics:
  enabled: true
  host: "127.0.0.1"
  port: %d
logging:
  level: error
`, obs.url(), oscPort, freePort(t, "udp"), dbPath, httpPort))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", httpPort)
	waitFor(t, "healthz", func() bool {
		resp, err := http.Get(base + "/healthz") //nolint:noctx // test
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})

	if !obs.sawRequest("GetCurrentTransition") {
		t.Error("bridge did not seed the current transition")
	}

	// An OSC command reaches OBS.
	client := goosc.NewClient("127.0.0.1", oscPort)
	if err := client.Send(goosc.NewMessage("/startStreaming")); err != nil {
		t.Fatalf("send OSC: %v", err)
	}
	waitFor(t, "StartStreaming request", func() bool { return obs.sawRequest("StartStreaming") })

	waitFor(t, "stats", func() bool {
		resp, err := http.Get(base + "/api/v1/stats") //nolint:noctx // test
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var stats bridge.Stats
		if json.NewDecoder(resp.Body).Decode(&stats) != nil {
			return false
		}
		return stats.CommandsSucceeded == 1 && stats.CurrentTransition == "Fade"
	})

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("run() error = %v, want nil on clean shutdown", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}
}

// TestRun_OBSConnectionLost verifies the process exits with an error when
// OBS goes away.
func TestRun_OBSConnectionLost(t *testing.T) {
	obs := newFakeOBS(t)

	writeConfig(t, fmt.Sprintf(`
obs:
  url: %q
osc:
  listen:
    host: "127.0.0.1"
    port: %d
logging:
  level: error
`, obs.url(), freePort(t, "udp")))

	errCh := make(chan error, 1)
	go func() { errCh <- run(context.Background()) }()

	waitFor(t, "bridge start", func() bool { return obs.sawRequest("GetCurrentTransition") })
	obs.dropConnection()

	select {
	case err := <-errCh:
		if !errors.Is(err, errOBSLost) {
			t.Errorf("run() error = %v, want errOBSLost", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after OBS dropped")
	}
}

func TestAwaitShutdown(t *testing.T) {
	t.Run("obs dropped before callback", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(nil)

		obsDone := make(chan struct{})
		close(obsDone)

		if err := awaitShutdown(ctx, cancel, obsDone); !errors.Is(err, errOBSLost) {
			t.Errorf("awaitShutdown() = %v, want errOBSLost", err)
		}
		if ctx.Err() == nil {
			t.Error("context not cancelled after OBS dropped")
		}
	})

	t.Run("cancelled by callback", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(fmt.Errorf("%w: read failed", errOBSLost))

		if err := awaitShutdown(ctx, cancel, make(chan struct{})); !errors.Is(err, errOBSLost) {
			t.Errorf("awaitShutdown() = %v, want errOBSLost", err)
		}
	})

	t.Run("signal", func(t *testing.T) {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(context.Canceled)

		if err := awaitShutdown(ctx, cancel, make(chan struct{})); err != nil {
			t.Errorf("awaitShutdown() = %v, want nil", err)
		}
	})
}

// fakeMQTT records adapter calls.
type fakeMQTT struct {
	published []string
	handler   mqtt.MessageHandler
}

func (f *fakeMQTT) Publish(topic string, _ []byte, _ byte, _ bool) error {
	f.published = append(f.published, topic)
	return nil
}

func (f *fakeMQTT) Subscribe(_ string, _ byte, handler mqtt.MessageHandler) error {
	f.handler = handler
	return nil
}

func (f *fakeMQTT) IsConnected() bool { return true }

func TestMQTTBridgeAdapter(t *testing.T) {
	fake := &fakeMQTT{}
	var adapter bridge.MQTTClient = &mqttBridgeAdapter{client: fake}

	if err := adapter.Publish("obsosc/scene", []byte("Main"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(fake.published) != 1 || fake.published[0] != "obsosc/scene" {
		t.Errorf("published = %v", fake.published)
	}

	var got string
	if err := adapter.Subscribe("obsosc/command", 1, func(_ string, p []byte) { got = string(p) }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := fake.handler("obsosc/command", []byte(`{"address":"/go"}`)); err != nil {
		t.Errorf("wrapped handler error = %v, want nil", err)
	}
	if got != `{"address":"/go"}` {
		t.Errorf("handler got %q", got)
	}
	if !adapter.IsConnected() {
		t.Error("IsConnected() = false")
	}
}

// fakeTelemetry records influxRecorder calls.
type fakeTelemetry struct {
	calls []string
}

func (f *fakeTelemetry) WriteCommand(_ time.Time, source, route, outcome, address string, _ time.Duration) {
	f.calls = append(f.calls, "command "+source+" "+route+" "+outcome+" "+address)
}

func (f *fakeTelemetry) WriteCue(_ time.Time, trigger, scene, token string, failed bool) {
	f.calls = append(f.calls, fmt.Sprintf("cue %s %s %s %v", trigger, scene, token, failed))
}

func (f *fakeTelemetry) WriteEvent(_ time.Time, eventType, scene string) {
	f.calls = append(f.calls, "event "+eventType+" "+scene)
}

func TestInfluxRecorder(t *testing.T) {
	fake := &fakeTelemetry{}
	var rec bridge.Recorder = &influxRecorder{client: fake}

	rec.RecordCommand(bridge.CommandRecord{Source: "osc", Route: "go", Outcome: "ok", Address: "/go"})
	rec.RecordCue(bridge.CueRecord{Trigger: "SwitchScenes", Scene: "Intro [Q1]", Token: "Q1", Error: "refused"})
	rec.RecordEvent(bridge.EventRecord{Type: "SwitchScenes", Scene: "Intro [Q1]"})

	want := []string{
		"command osc go ok /go",
		"cue SwitchScenes Intro [Q1] Q1 true",
		"event SwitchScenes Intro [Q1]",
	}
	if len(fake.calls) != len(want) {
		t.Fatalf("calls = %v", fake.calls)
	}
	for i := range want {
		if fake.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, fake.calls[i], want[i])
		}
	}
}
