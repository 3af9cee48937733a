package api

import (
	"time"

	"github.com/nerrad567/onenet-console/internal/infrastructure/influxdb"
	"github.com/nerrad567/onenet-console/internal/onenet"
)

// ChannelDatapoints carries datapoints fetched through the console.
const ChannelDatapoints = "datapoints"

// datapointEvent is broadcast and published for each fetched datapoint set.
type datapointEvent struct {
	Version     onenet.Version            `json:"version"`
	Device      string                    `json:"device"`
	Datastreams []onenet.DatastreamPoints `json:"datastreams"`
}

// mirrorDatapoints copies a fetched datapoint set to the optional sinks:
// numeric values to InfluxDB, the whole set to the bus and WebSocket.
func (s *Server) mirrorDatapoints(v onenet.Version, deviceKey string, set *onenet.DatapointSet) {
	if set == nil || len(set.Datastreams) == 0 {
		return
	}

	if s.mirror != nil {
		if points := numericPoints(v, deviceKey, set); len(points) > 0 {
			n := s.mirror.WriteDatapoints(points)
			s.logger.Debug("mirrored datapoints", "device", deviceKey, "points", n)
		}
	}

	event := datapointEvent{Version: v, Device: deviceKey, Datastreams: set.Datastreams}
	s.hub.Broadcast(ChannelDatapoints, event)
	if s.events != nil {
		if err := s.events.PublishDatapoints(deviceKey, event); err != nil {
			s.logger.Warn("publishing datapoints failed", "device", deviceKey, "error", err)
		}
	}
}

// numericPoints keeps datapoints whose value is a number and whose
// timestamp parses. Others are skipped.
func numericPoints(v onenet.Version, deviceKey string, set *onenet.DatapointSet) []influxdb.Datapoint {
	var out []influxdb.Datapoint
	for _, stream := range set.Datastreams {
		for _, dp := range stream.Datapoints {
			value, ok := dp.Float()
			if !ok {
				continue
			}
			at, ok := parseDatapointTime(dp.At)
			if !ok {
				continue
			}
			out = append(out, influxdb.Datapoint{
				Version:    string(v),
				DeviceID:   deviceKey,
				Datastream: stream.ID,
				At:         at,
				Value:      value,
			})
		}
	}
	return out
}

// parseDatapointTime reads OneNET's "at" stamps, which carry no zone and
// are treated as UTC.
func parseDatapointTime(s string) (time.Time, bool) {
	norm, ok := onenet.NormalizeTimestamp(s)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(onenet.WireTimeLayout, norm)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
