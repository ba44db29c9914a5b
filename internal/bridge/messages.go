package bridge

import (
	"strings"
	"time"
)

// MQTT topic layout.
const (
	// DefaultBridgeID is the bridge identifier used in health messages.
	DefaultBridgeID = "obsosc"

	// TopicPrefix is the root of all bridge topics.
	TopicPrefix = "obsosc"
)

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is running but OBS or MQTT is down.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline indicates the bridge is gone (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained health document published to HealthTopic.
type HealthMessage struct {
	// Bridge is the bridge identifier.
	Bridge string `json:"bridge"`

	// Timestamp is when the status was generated (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	Version       string `json:"version,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	OBSConnected  bool   `json:"obs_connected"`

	// Statistics holds the bridge counters.
	Statistics *Stats `json:"statistics,omitempty"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, obsConnected bool, stats Stats, startTime time.Time) HealthMessage {
	return HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		OBSConnected:  obsConnected,
		Statistics:    &stats,
	}
}

// NewLWTMessage creates the Last Will and Testament message for MQTT.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}

// CueMessage is published to CueTopic for each cue trigger.
type CueMessage struct {
	Cue       string    `json:"cue"`
	Address   string    `json:"address"`
	Scene     string    `json:"scene"`
	Trigger   string    `json:"trigger"`
	Sent      bool      `json:"sent"`
	Timestamp time.Time `json:"timestamp"`
}

// SceneMessage is published (retained) to SceneTopic on every scene switch.
type SceneMessage struct {
	Scene      string    `json:"scene"`
	Transition string    `json:"transition,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CommandMessage is the JSON body accepted on CommandTopic.
//
// Example: {"address":"/scene","args":[2]}
type CommandMessage struct {
	Address string `json:"address"`
	Args    []any  `json:"args,omitempty"`
}

// HealthTopic returns the MQTT topic for health status.
func HealthTopic() string {
	return TopicPrefix + "/health"
}

// topicSafe replaces characters with MQTT topic meaning.
var topicSafe = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// CueTopic returns the MQTT topic mirroring triggers of one cue.
// Topic separators and wildcards in the token are replaced with "_".
func CueTopic(token string) string {
	return TopicPrefix + "/cue/" + topicSafe.Replace(token)
}

// SceneTopic returns the MQTT topic carrying the current program scene.
func SceneTopic() string {
	return TopicPrefix + "/scene"
}

// CommandTopic returns the MQTT topic accepting inbound commands.
func CommandTopic() string {
	return TopicPrefix + "/command"
}
