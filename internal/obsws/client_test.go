package obsws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeOBS is a minimal obs-websocket 4.x server for tests.
type fakeOBS struct {
	server   *httptest.Server
	password string

	// replies maps request-type to extra response fields.
	replies map[string]map[string]any
	// failures maps request-type to an error reason.
	failures map[string]string

	mu       sync.Mutex
	requests []map[string]any
	conn     *websocket.Conn
	writeMu  sync.Mutex
	ready    chan struct{}
}

func newFakeOBS(t *testing.T, password string) *fakeOBS {
	t.Helper()

	f := &fakeOBS{
		password: password,
		replies:  make(map[string]map[string]any),
		failures: make(map[string]string),
		ready:    make(chan struct{}),
	}
	upgrader := websocket.Upgrader{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		close(f.ready)
		f.serve(conn)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeOBS) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeOBS) serve(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		f.write(f.reply(req))
	}
}

func (f *fakeOBS) reply(req map[string]any) map[string]any {
	reqType, _ := req["request-type"].(string)
	resp := map[string]any{"message-id": req["message-id"], "status": "ok"}

	switch reqType {
	case RequestGetAuthRequired:
		if f.password == "" {
			resp["authRequired"] = false
			return resp
		}
		resp["authRequired"] = true
		resp["challenge"] = "chal"
		resp["salt"] = "salt"
		return resp
	case RequestAuthenticate:
		if req["auth"] != authResponse(f.password, "salt", "chal") {
			resp["status"] = "error"
			resp["error"] = "Authentication Failed."
		}
		return resp
	}

	if reason, ok := f.failures[reqType]; ok {
		resp["status"] = "error"
		resp["error"] = reason
		return resp
	}
	for k, v := range f.replies[reqType] {
		resp[k] = v
	}
	return resp
}

func (f *fakeOBS) write(v any) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn != nil {
		conn.WriteJSON(v) //nolint:errcheck // test helper
	}
}

func (f *fakeOBS) sendEvent(updateType string, fields map[string]any) {
	ev := map[string]any{"update-type": updateType}
	for k, v := range fields {
		ev[k] = v
	}
	f.write(ev)
}

func (f *fakeOBS) lastRequest(reqType string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i]["request-type"] == reqType {
			return f.requests[i]
		}
	}
	return nil
}

func dialFake(t *testing.T, f *fakeOBS, password string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, Config{URL: f.url(), Password: password})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAuthResponse(t *testing.T) {
	// base64(sha256(base64(sha256("password"+"salt")) + "challenge"))
	want := "zTM5ki6L2vVvBQiTG9ckH1Lh64AbnCf6XZ226UmnkIA="

	if got := authResponse("password", "salt", "challenge"); got != want {
		t.Errorf("authResponse() = %q, want %q", got, want)
	}
	if authResponse("password", "salt", "other") == want {
		t.Error("authResponse() ignores challenge")
	}
}

func TestEncodeRequest(t *testing.T) {
	payload, err := encodeRequest(RequestSetCurrentScene, "7", SceneParams{SceneName: "Intro"})
	if err != nil {
		t.Fatalf("encodeRequest() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["request-type"] != RequestSetCurrentScene {
		t.Errorf("request-type = %v", got["request-type"])
	}
	if got["message-id"] != "7" {
		t.Errorf("message-id = %v", got["message-id"])
	}
	if got["scene-name"] != "Intro" {
		t.Errorf("scene-name = %v", got["scene-name"])
	}
}

func TestEncodeRequestNonObjectParams(t *testing.T) {
	_, err := encodeRequest(RequestSetCurrentScene, "1", []string{"a"})
	if !errors.Is(err, ErrInvalidParams) {
		t.Errorf("encodeRequest() error = %v, want ErrInvalidParams", err)
	}
}

func TestDialNoAuth(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	if !c.IsConnected() {
		t.Error("IsConnected() = false after Dial")
	}
	if f.lastRequest(RequestAuthenticate) != nil {
		t.Error("Authenticate sent although auth not required")
	}
}

func TestDialWithAuth(t *testing.T) {
	f := newFakeOBS(t, "secret")
	dialFake(t, f, "secret")

	if f.lastRequest(RequestAuthenticate) == nil {
		t.Error("Authenticate not sent")
	}
}

func TestDialAuthFailures(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "wrong password", password: "nope", wantErr: ErrAuthFailed},
		{name: "missing password", password: "", wantErr: ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeOBS(t, "secret")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := Dial(ctx, Config{URL: f.url(), Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Dial() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, Config{URL: "ws://127.0.0.1:1", ConnectTimeout: time.Second})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Dial() error = %v, want ErrConnectionFailed", err)
	}
}

func TestCallDecodesResult(t *testing.T) {
	f := newFakeOBS(t, "")
	f.replies[RequestGetSceneList] = map[string]any{
		"current-scene": "B",
		"scenes":        []map[string]any{{"name": "A"}, {"name": "B"}, {"name": "C"}},
	}
	c := dialFake(t, f, "")

	var list SceneList
	if err := c.Call(context.Background(), RequestGetSceneList, nil, &list); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if list.CurrentScene != "B" {
		t.Errorf("CurrentScene = %q, want B", list.CurrentScene)
	}
	if got := strings.Join(list.Names(), ","); got != "A,B,C" {
		t.Errorf("Names() = %q, want A,B,C", got)
	}
}

func TestCallSendsParams(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	x := 1000.0
	params := SceneItemProperties{
		SceneName: "Main",
		Item:      "Camera",
		Position:  &ItemPosition{X: &x},
	}
	if err := c.Call(context.Background(), RequestSetSceneItemProperties, params, nil); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	req := f.lastRequest(RequestSetSceneItemProperties)
	if req == nil {
		t.Fatal("request not received")
	}
	pos, ok := req["position"].(map[string]any)
	if !ok {
		t.Fatalf("position = %v", req["position"])
	}
	if pos["x"] != 1000.0 {
		t.Errorf("position.x = %v, want 1000", pos["x"])
	}
	if _, present := pos["y"]; present {
		t.Error("position.y sent although unset")
	}
	if _, present := req["visible"]; present {
		t.Error("visible sent although unset")
	}
}

func TestCallRemoteError(t *testing.T) {
	f := newFakeOBS(t, "")
	f.failures[RequestSetCurrentScene] = ReasonSceneNotFound
	c := dialFake(t, f, "")

	err := c.Call(context.Background(), RequestSetCurrentScene, SceneParams{SceneName: "Nope"}, nil)

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Call() error = %v, want *RequestError", err)
	}
	if reqErr.Reason != ReasonSceneNotFound {
		t.Errorf("Reason = %q, want %q", reqErr.Reason, ReasonSceneNotFound)
	}
	if reqErr.RequestType != RequestSetCurrentScene {
		t.Errorf("RequestType = %q", reqErr.RequestType)
	}

	if got := c.Stats().RequestErrors; got != 1 {
		t.Errorf("RequestErrors = %d, want 1", got)
	}
}

func TestCallAfterClose(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	if err := c.Close(); err != nil {
		t.Logf("Close() error = %v", err)
	}

	err := c.Call(context.Background(), RequestGetVersion, nil, nil)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Call() after Close error = %v, want ErrNotConnected", err)
	}

	// Second close must not panic.
	c.Close() //nolint:errcheck // testing idempotency
}

func TestEventsDeliveredInOrder(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})

	c.SetOnEvent(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.Type)
		if len(got) == 3 {
			close(done)
		}
	})

	f.sendEvent(EventSwitchTransition, map[string]any{"transition-name": "Fade"})
	f.sendEvent(EventTransitionBegin, map[string]any{"to-scene": "Intro [1]"})
	f.sendEvent(EventSwitchScenes, map[string]any{"scene-name": "Intro [1]"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{EventSwitchTransition, EventTransitionBegin, EventSwitchScenes}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEventDecode(t *testing.T) {
	ev := Event{
		Type: EventTransitionBegin,
		Raw:  json.RawMessage(`{"update-type":"TransitionBegin","name":"Fade","to-scene":"Intro [12]","duration":300}`),
	}

	var body TransitionBeginEvent
	if err := ev.Decode(&body); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if body.ToScene != "Intro [12]" {
		t.Errorf("ToScene = %q", body.ToScene)
	}
	if body.Duration != 300 {
		t.Errorf("Duration = %d, want 300", body.Duration)
	}
}

func TestEventCallbackPanicRecovered(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	delivered := make(chan struct{}, 2)
	c.SetOnEvent(func(ev Event) {
		delivered <- struct{}{}
		if ev.Type == EventSwitchScenes {
			panic("boom")
		}
	})

	f.sendEvent(EventSwitchScenes, map[string]any{"scene-name": "A"})
	f.sendEvent(EventSwitchTransition, map[string]any{"transition-name": "Cut"})

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered after callback panic", i)
		}
	}
}

func TestDisconnectCallback(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	lost := make(chan error, 1)
	c.SetOnDisconnect(func(err error) { lost <- err })

	<-f.ready
	f.mu.Lock()
	f.conn.Close()
	f.mu.Unlock()

	select {
	case <-lost:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback not invoked")
	}
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("Done() not closed after disconnect")
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after disconnect")
	}
}

func TestEventsBeforeCallbackAreKept(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	f.sendEvent(EventSwitchTransition, map[string]any{"transition-name": "Cut"})

	// Wait until the read loop has queued the event.
	deadline := time.Now().Add(2 * time.Second)
	for c.Stats().EventsRx == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event never received")
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := make(chan string, 1)
	c.SetOnEvent(func(ev Event) { got <- ev.Type })

	select {
	case typ := <-got:
		if typ != EventSwitchTransition {
			t.Errorf("event = %q, want %q", typ, EventSwitchTransition)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event received before SetOnEvent was discarded")
	}
}

func TestDoneClosedWithoutDisconnectCallback(t *testing.T) {
	f := newFakeOBS(t, "")
	c := dialFake(t, f, "")

	<-f.ready
	f.mu.Lock()
	f.conn.Close()
	f.mu.Unlock()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after an unobserved disconnect")
	}

	// A callback set after the drop is not invoked, Done already reported it.
	called := make(chan struct{}, 1)
	c.SetOnDisconnect(func(error) { called <- struct{}{} })
	select {
	case <-called:
		t.Error("disconnect callback invoked after the fact")
	case <-time.After(100 * time.Millisecond):
	}
}
