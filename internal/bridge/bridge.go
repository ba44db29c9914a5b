package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/obs-osc-bridge/internal/obsws"
)

// Controller issues obs-websocket requests. *obsws.Client satisfies it.
type Controller interface {
	// Call sends requestType with params and decodes the response into
	// result (when non-nil). Remote rejections are *obsws.RequestError.
	Call(ctx context.Context, requestType string, params, result any) error
}

// CueSender sends outbound OSC messages. *osc.Client satisfies it.
type CueSender interface {
	SendMessage(address string, args ...any) error
}

// ConnectionStatus reports whether a collaborator is connected.
type ConnectionStatus interface {
	IsConnected() bool
}

// MQTTClient is the interface for MQTT operations.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Config holds bridge behaviour settings.
type Config struct {
	// ID identifies this bridge in health messages. Default: "obsosc".
	ID string

	// EnableCues turns on OBS -> OSC cue triggering.
	EnableCues bool

	// QueueSize is the command queue capacity. Default: 64.
	QueueSize int

	// Workers is the number of command workers. Default: 4.
	Workers int

	// HealthInterval is how often health is published to MQTT.
	// Default: 30 seconds.
	HealthInterval time.Duration
}

// Stats holds bridge counters.
type Stats struct {
	CommandsReceived     uint64 `json:"commands_received"`
	CommandsSucceeded    uint64 `json:"commands_succeeded"`
	CommandsFailed       uint64 `json:"commands_failed"`
	CommandsDropped      uint64 `json:"commands_dropped"`
	CommandsUnrecognized uint64 `json:"commands_unrecognized"`
	CuesSent             uint64 `json:"cues_sent"`
	CueErrors            uint64 `json:"cue_errors"`
	CurrentTransition    string `json:"current_transition"`
}

// BridgeOptions holds the collaborators for a bridge.
type BridgeOptions struct {
	// Config is the bridge configuration.
	Config Config

	// OBS issues requests to OBS. Required.
	OBS Controller

	// OBSStatus reports the OBS connection state for health messages.
	// Optional.
	OBSStatus ConnectionStatus

	// Cues sends cue triggers. Required when Config.EnableCues is set.
	Cues CueSender

	// MQTT enables health reporting, the scene/cue mirror and command
	// ingress. Optional.
	MQTT MQTTClient

	// Recorders receive command, cue and event records. Optional.
	Recorders []Recorder

	// Routes overrides the inbound route table. Default: DefaultRoutes().
	Routes []Route

	// Version is reported in health messages.
	Version string

	// Logger is optional structured logger.
	Logger Logger
}

// Bridge translates inbound control messages into OBS requests and OBS
// events into outbound cues.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg        Config
	obs        Controller
	router     *Router
	dispatcher *Dispatcher
	events     *EventBridge
	recorder   Recorders
	mqtt       MQTTClient
	health     *HealthReporter

	received     atomic.Uint64
	succeeded    atomic.Uint64
	failed       atomic.Uint64
	unrecognized atomic.Uint64

	// Shutdown coordination
	stopOnce  sync.Once
	ctx       context.Context    // Bridge-level context, cancelled on Stop()
	ctxCancel context.CancelFunc // Cancel function for ctx

	logger   Logger
	loggerMu sync.RWMutex
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.OBS == nil {
		return nil, fmt.Errorf("OBS controller is required")
	}
	if opts.Config.EnableCues && opts.Cues == nil {
		return nil, fmt.Errorf("cue sender is required when cues are enabled")
	}

	cfg := opts.Config
	if cfg.ID == "" {
		cfg.ID = DefaultBridgeID
	}

	routes := opts.Routes
	if routes == nil {
		routes = DefaultRoutes()
	}

	recorders := make(Recorders, 0, len(opts.Recorders)+1)
	recorders = append(recorders, opts.Recorders...)

	// Create bridge-level context for command cancellation on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		cfg:        cfg,
		obs:        opts.OBS,
		router:     NewRouter(routes),
		dispatcher: NewDispatcher(cfg.QueueSize, cfg.Workers),
		events:     NewEventBridge(NewTransitionState(), opts.Cues, cfg.EnableCues),
		recorder:   recorders,
		mqtt:       opts.MQTT,
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}

	b.dispatcher.onPanic = func(r any) {
		b.logError("command handler panic", fmt.Errorf("%v", r))
	}

	if opts.MQTT != nil {
		mirror := NewMirror(opts.MQTT)
		b.recorder = append(b.recorder, mirror)
		b.health = NewHealthReporter(HealthReporterConfig{
			BridgeID:  cfg.ID,
			Version:   opts.Version,
			Interval:  cfg.HealthInterval,
			Publisher: opts.MQTT,
			OBS:       opts.OBSStatus,
			Stats:     b.Stats,
		})
		if opts.Logger != nil {
			mirror.SetLogger(opts.Logger)
			b.health.SetLogger(opts.Logger)
		}
	}

	b.events.SetRecorder(b.recorder)
	if opts.Logger != nil {
		b.events.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start seeds the transition cache from OBS, starts the command workers
// and, when MQTT is configured, health reporting and command ingress.
func (b *Bridge) Start(ctx context.Context) error {
	if b.health != nil {
		if err := b.health.PublishStarting(); err != nil {
			b.logError("failed to publish starting status", err)
		}
	}

	b.syncWithOBS(ctx)
	b.dispatcher.Start()

	if b.mqtt != nil {
		topic := CommandTopic()
		if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTCommand); err != nil {
			return fmt.Errorf("subscribe to commands: %w", err)
		}
		b.logInfo("subscribed to commands", "topic", topic)

		b.health.Start(ctx)
	}

	b.logInfo("bridge started",
		"bridge_id", b.cfg.ID,
		"routes", len(b.router.routes),
		"cues_enabled", b.events.Enabled(),
		"transition", b.events.State().Current())

	return nil
}

// syncWithOBS logs the OBS versions and caches the current transition.
// Failures are logged; the bridge still starts.
func (b *Bridge) syncWithOBS(ctx context.Context) {
	var version obsws.VersionInfo
	if err := b.obs.Call(ctx, obsws.RequestGetVersion, nil, &version); err != nil {
		b.logError("failed to read OBS version", err)
	} else {
		b.logInfo("connected to OBS",
			"obs_version", version.OBSStudioVersion,
			"websocket_version", version.OBSWebsocketVersion)
	}

	var transition obsws.TransitionInfo
	if err := b.obs.Call(ctx, obsws.RequestGetCurrentTransition, nil, &transition); err != nil {
		b.logError("failed to read current transition", err)
		return
	}
	b.events.State().Set(transition.Name)
	b.logInfo("cached current transition", "transition", transition.Name)
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		// Cancel bridge context to abort in-flight commands
		b.ctxCancel()

		b.dispatcher.Stop()

		// Stop health reporting (publishes "stopping" status)
		if b.health != nil {
			b.health.Stop()
		}

		b.logInfo("bridge stopped")
	})
}

// HandleOSC routes one inbound OSC message. It has the osc.Handler
// signature so it can be passed straight to osc.Listen.
func (b *Bridge) HandleOSC(address string, args []any) {
	//nolint:errcheck // Outcome is logged and recorded by Submit
	b.Submit(SourceOSC, address, args)
}

// HandleEvent processes one OBS event. It has the callback signature of
// obsws.Client.SetOnEvent.
func (b *Bridge) HandleEvent(ev obsws.Event) {
	b.events.HandleEvent(ev)
}

// Submit matches a message synchronously and queues it for execution.
//
// Returns:
//   - ErrInvalidAddress for an empty or relative address
//   - ErrUnrecognizedCommand when no route matches
//   - ErrQueueFull or ErrNotStarted when the command could not be queued
func (b *Bridge) Submit(source, address string, args []any) error {
	b.received.Add(1)

	msg, err := NewInboundMessage(address, args)
	if err != nil {
		b.logWarn("invalid command", "source", source, "error", err)
		b.recordCommand(source, "", InboundMessage{Address: address}, OutcomeInvalid, err, 0)
		return err
	}
	b.logDebug("command received", "source", source, "address", msg.Address, "args", msg.ArgsString())

	route, ok := b.router.Match(msg)
	if !ok {
		b.unrecognized.Add(1)
		err := fmt.Errorf("%w: %s %s", ErrUnrecognizedCommand, msg.Address, msg.ArgsString())
		b.logWarn("unrecognized command", "source", source, "address", msg.Address, "args", msg.ArgsString())
		b.recordCommand(source, "", msg, OutcomeUnrecognized, err, 0)
		return err
	}

	err = b.dispatcher.Submit(func() { b.execute(source, route, msg) })
	if err != nil {
		b.logError("command not queued", err, "route", route.Name, "address", msg.Address)
		b.recordCommand(source, route.Name, msg, OutcomeDropped, err, 0)
		return err
	}
	return nil
}

// execute runs a routed command on a dispatcher worker.
func (b *Bridge) execute(source string, route Route, msg InboundMessage) {
	start := time.Now()
	err := route.Handle(b.ctx, b, msg)
	elapsed := time.Since(start)

	if err != nil {
		b.failed.Add(1)
		b.logError("command failed", err, "route", route.Name, "address", msg.Address, "args", msg.ArgsString())
		b.recordCommand(source, route.Name, msg, OutcomeError, err, elapsed)
		return
	}

	b.succeeded.Add(1)
	b.logDebug("command completed", "route", route.Name, "duration", elapsed)
	b.recordCommand(source, route.Name, msg, OutcomeOK, nil, elapsed)
}

func (b *Bridge) recordCommand(source, route string, msg InboundMessage, outcome string, err error, elapsed time.Duration) {
	rec := CommandRecord{
		Time:     time.Now().UTC(),
		Source:   source,
		Route:    route,
		Address:  msg.Address,
		Args:     msg.ArgsString(),
		Outcome:  outcome,
		Duration: elapsed,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	b.recorder.RecordCommand(rec)
}

// handleMQTTCommand routes a JSON command received over MQTT.
func (b *Bridge) handleMQTTCommand(topic string, payload []byte) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logError("invalid MQTT command payload", err, "topic", topic)
		return
	}
	//nolint:errcheck // Outcome is logged and recorded by Submit
	b.Submit(SourceMQTT, cmd.Address, cmd.Args)
}

// Stats returns current bridge counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		CommandsReceived:     b.received.Load(),
		CommandsSucceeded:    b.succeeded.Load(),
		CommandsFailed:       b.failed.Load(),
		CommandsDropped:      b.dispatcher.Dropped(),
		CommandsUnrecognized: b.unrecognized.Load(),
		CuesSent:             b.events.cuesSent.Load(),
		CueErrors:            b.events.cueErrors.Load(),
		CurrentTransition:    b.events.State().Current(),
	}
}

// Transition returns the cached OBS transition name.
func (b *Bridge) Transition() string {
	return b.events.State().Current()
}

// call issues one OBS request.
func (b *Bridge) call(ctx context.Context, requestType string, params, result any) error {
	b.logDebug("obs request", "request", requestType)
	if err := b.obs.Call(ctx, requestType, params, result); err != nil {
		return fmt.Errorf("%s: %w", requestType, err)
	}
	return nil
}

// sceneList reads the scene list and current program scene.
func (b *Bridge) sceneList(ctx context.Context) (obsws.SceneList, error) {
	var list obsws.SceneList
	err := b.call(ctx, obsws.RequestGetSceneList, nil, &list)
	return list, err
}

// currentScene returns the current program scene name.
func (b *Bridge) currentScene(ctx context.Context) (string, error) {
	var cur obsws.CurrentScene
	if err := b.call(ctx, obsws.RequestGetCurrentScene, nil, &cur); err != nil {
		return "", err
	}
	return cur.Name, nil
}

// setCurrentScene switches the program scene.
func (b *Bridge) setCurrentScene(ctx context.Context, name string) error {
	b.logInfo("switching scene", "scene", name)

	err := b.call(ctx, obsws.RequestSetCurrentScene, obsws.SceneParams{SceneName: name}, nil)
	if reason, ok := remoteReason(err); ok && reason == obsws.ReasonSceneNotFound {
		return fmt.Errorf("%w: there is no scene %q in OBS (names are case sensitive)", ErrSceneNotFound, name)
	}
	return err
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
	b.events.SetLogger(logger)
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}
