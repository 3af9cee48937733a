package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// DatapointMeasurement is the measurement OneNET datapoints are mirrored into.
const DatapointMeasurement = "onenet_datapoints"

// Datapoint is one numeric OneNET reading ready to be mirrored.
type Datapoint struct {
	// Version is the API generation the reading came through ("v1" or "v2").
	Version    string
	DeviceID   string
	Datastream string
	At         time.Time
	Value      float64
}

// WriteDatapoint queues one reading. Dropped silently when disconnected.
//
//	client.WriteDatapoint(influxdb.Datapoint{
//	    Version: "v1", DeviceID: "1001", Datastream: "temperature",
//	    At: at, Value: 21.5,
//	})
func (c *Client) WriteDatapoint(dp Datapoint) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newDatapointPoint(dp))
	c.queued.Add(1)
}

// WriteDatapoints queues a batch and returns how many were queued.
func (c *Client) WriteDatapoints(points []Datapoint) int {
	if !c.IsConnected() {
		return 0
	}
	for _, dp := range points {
		c.writeAPI.WritePoint(newDatapointPoint(dp))
	}
	c.queued.Add(uint64(len(points)))
	return len(points)
}

func newDatapointPoint(dp Datapoint) *write.Point {
	at := dp.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(
		DatapointMeasurement,
		map[string]string{
			"device":     dp.DeviceID,
			"datastream": dp.Datastream,
			"version":    dp.Version,
		},
		map[string]interface{}{
			"value": dp.Value,
		},
		at,
	)
}
