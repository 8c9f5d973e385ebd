package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a sensor reading as a point in the "reading"
// measurement, tagged by device and unit. Non-blocking; the point is
// batched and sent asynchronously.
func (c *Client) WriteReading(deviceID, unit string, value float64, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"reading",
		map[string]string{
			"device": deviceID,
			"unit":   unit,
		},
		map[string]interface{}{
			"value": value,
		},
		ts,
	)
	c.writeAPI.WritePoint(point)
}

// WriteActuatorState records an actuator state transition. Off is
// written as active=false with no target field.
func (c *Client) WriteActuatorState(deviceID string, active bool, target *float64) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"active": active,
	}
	if target != nil {
		fields["target"] = *target
	}

	point := write.NewPoint(
		"actuator_state",
		map[string]string{
			"device": deviceID,
		},
		fields,
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
