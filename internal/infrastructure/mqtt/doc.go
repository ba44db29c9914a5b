// Package mqtt connects the bridge to an MQTT broker.
//
// MQTT is optional. When enabled the bridge announces itself on
// obsosc/status (retained, with a Last Will for crashes), publishes health
// and mirrors cues and scene changes, and accepts JSON commands on
// obsosc/command:
//
//	OSC console ↔ Bridge ↔ OBS
//	                ↕
//	           MQTT broker ↔ dashboards, automation
//
// Anyone who can publish to obsosc/command can drive OBS, so restrict it
// with broker ACLs, and enable TLS when the broker is off-host.
package mqtt
