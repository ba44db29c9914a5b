package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the bridge.
const (
	MeasurementCommands = "bridge_commands"
	MeasurementCues     = "bridge_cues"
	MeasurementEvents   = "bridge_events"
)

// WriteCommand records the outcome of one inbound command.
//
// Tags are kept to low-cardinality values (route, source, outcome). The
// OSC address and duration are fields.
//
// Example:
//
//	client.WriteCommand(time.Now(), "osc", "scene.index", "ok", "/scene", 3*time.Millisecond)
func (c *Client) WriteCommand(at time.Time, source, route, outcome, address string, took time.Duration) {
	c.write(commandPoint(at, source, route, outcome, address, took))
}

// WriteCue records one outbound cue trigger. failed marks a cue whose OSC
// send returned an error.
func (c *Client) WriteCue(at time.Time, trigger, scene, token string, failed bool) {
	c.write(cuePoint(at, trigger, scene, token, failed))
}

// WriteEvent records one OBS event handled by the bridge.
func (c *Client) WriteEvent(at time.Time, eventType, scene string) {
	c.write(write.NewPoint(
		MeasurementEvents,
		map[string]string{"type": eventType},
		map[string]interface{}{"scene": scene, "count": 1},
		at,
	))
}

func commandPoint(at time.Time, source, route, outcome, address string, took time.Duration) *write.Point {
	if route == "" {
		route = "none"
	}
	return write.NewPoint(
		MeasurementCommands,
		map[string]string{
			"source":  source,
			"route":   route,
			"outcome": outcome,
		},
		map[string]interface{}{
			"address":     address,
			"duration_ms": float64(took) / float64(time.Millisecond),
			"count":       1,
		},
		at,
	)
}

func cuePoint(at time.Time, trigger, scene, token string, failed bool) *write.Point {
	return write.NewPoint(
		MeasurementCues,
		map[string]string{
			"trigger": trigger,
			"token":   token,
		},
		map[string]interface{}{
			"scene":  scene,
			"failed": failed,
			"count":  1,
		},
		at,
	)
}
