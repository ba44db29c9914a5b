package mqtt

import (
	"fmt"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publish sends payload to topic and waits for the broker to accept it.
// Wildcards are not allowed in a publish topic; callers building topics
// from scene or cue names must escape them first.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkPublishTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	return await(c.paho.Publish(topic, qos, retained, payload), ErrPublishFailed)
}

// Subscribe registers handler for a topic filter. The subscription is
// remembered and restored after every reconnect.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if filter == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if err := await(c.paho.Subscribe(filter, qos, c.wrapHandler(handler)), ErrSubscribeFailed); err != nil {
		return err
	}

	c.mu.Lock()
	if c.subs == nil {
		c.subs = make(map[string]subscription)
	}
	c.subs[filter] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()
	return nil
}

// checkPublishTopic rejects empty topics and topics with "+" or "#".
func checkPublishTopic(topic string) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: wildcard in publish topic %q", ErrInvalidTopic, topic)
	}
	return nil
}

// await waits for a paho token and wraps failures in kind.
func await(token pahomqtt.Token, kind error) error {
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: no broker response after %v", kind, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}
