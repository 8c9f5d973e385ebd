package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// actuatorStateTopic is the topic pattern for actuator state changes.
const actuatorStateTopic = "smarthouse/actuator/%s/state"

// actuatorStatePayload is the JSON shape published on state changes.
type actuatorStatePayload struct {
	DeviceID  string   `json:"device_id"`
	Active    bool     `json:"active"`
	Target    *float64 `json:"target,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// PublishActuatorState publishes a device's state transition, retained,
// so late subscribers immediately see the current state.
func (c *Client) PublishActuatorState(deviceID string, active bool, target *float64) error {
	payload, err := json.Marshal(actuatorStatePayload{
		DeviceID:  deviceID,
		Active:    active,
		Target:    target,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.publish(fmt.Sprintf(actuatorStateTopic, deviceID), payload, true)
}
