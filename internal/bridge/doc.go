// Package bridge implements the OBS <-> OSC show-control bridge.
//
// A lighting or cue console drives OBS scenes, sources and transitions over
// OSC, and OBS scene changes fire cues back on the console.
//
// # Architecture
//
//	┌──────────────┐   OSC/UDP   ┌─────────────────┐  obs-websocket  ┌─────────┐
//	│ Show control │────────────►│     Bridge      │────────────────►│   OBS   │
//	│  (QLab etc.) │◄────────────│  (this package) │◄────────────────│ Studio  │
//	└──────────────┘ /cue/N/start└─────────────────┘     events      └─────────┘
//
// Inbound, each message is tokenised (InboundMessage), matched against an
// ordered route table (Router, DefaultRoutes) and executed on a bounded
// worker pool (Dispatcher). Handlers shape arguments and issue one or a
// short fixed sequence of OBS requests. Nothing is sent back to the sender;
// outcomes are logged and handed to Recorders.
//
// Outbound, EventBridge watches SwitchScenes, TransitionBegin and
// SwitchTransition. The cached transition (TransitionState) decides which
// of the first two fires, and a "[token]" in the destination scene name
// becomes an OSC message "/cue/<token>/start".
//
// # Routing
//
// Routes are tried in declaration order and the first match wins. Several
// commands share a leading token and differ only in argument shape:
//
//	/scene 3          switch by 1-based index
//	/scene Intro      switch by name
//	/scene/Intro      switch by name in the path
//
// The opacity, position, scale and rotate families match on a substring of
// the address and are declared last so they cannot shadow exact routes.
// Scene and source names in these paths use "_" for spaces.
//
// # Ordering
//
// Commands carry no ordering guarantee relative to each other. On the event
// side, a cue is derived from whatever transition is cached when the scene
// event arrives: if a console toggles the transition and switches scene in
// quick succession, OBS may deliver SwitchTransition after the switch has
// already been evaluated, and the cue follows the previous transition kind.
//
// # Thread Safety
//
// Bridge, Router, Dispatcher and TransitionState are safe for concurrent
// use. EventBridge expects events from a single goroutine.
package bridge
