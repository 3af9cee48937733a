package mqtt

import (
	"encoding/json"
	"fmt"
)

// maxPayloadSize bounds a single message.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends payload to topic and waits for the broker to acknowledge.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishJSON marshals v and publishes it with the configured QoS.
func (c *Client) PublishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, payload, byte(c.cfg.QoS), retained)
}

// PublishCacheEvent publishes a device cache change as the retained state
// of Topics.CacheDevices, so new subscribers see the latest change.
func (c *Client) PublishCacheEvent(event any) error {
	return c.PublishJSON(c.topics.CacheDevices(), event, true)
}

// PublishDatapoints publishes datapoints fetched for deviceID.
func (c *Client) PublishDatapoints(deviceID string, points any) error {
	return c.PublishJSON(c.topics.Datapoints(deviceID), points, false)
}
