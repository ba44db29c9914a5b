// Package influxdb provides InfluxDB connectivity for the bridge.
//
// Each command the bridge handles and each cue it fires becomes a point,
// so a show's control traffic can be graphed and replayed alongside other
// production telemetry:
//   - bridge_commands: one point per inbound OSC/MQTT command
//   - bridge_cues: one point per outbound cue
//   - bridge_events: one point per OBS scene event
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteCue(time.Now(), "SwitchScenes", "Intro [Q1]", "Q1", false)
//
// Writes are batched according to batch_size and flush_interval and never
// block the caller. Close flushes whatever is still queued. Batch errors
// arrive through SetOnError.
package influxdb
