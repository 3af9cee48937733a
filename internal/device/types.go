package device

import (
	"encoding/json"
	"slices"
)

// Device is one OneNET device record as returned by the v1 device list.
//
// Unknown fields from the remote are dropped; the listed ones round-trip
// unchanged through the cache snapshot.
type Device struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Online     bool      `json:"online"`
	CreateTime string    `json:"create_time,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Protocol   string    `json:"protocol,omitempty"`
	Desc       string    `json:"desc,omitempty"`
	Private    *bool     `json:"private,omitempty"`

	// AuthInfo is a string for MQTT devices and an object for others.
	AuthInfo json.RawMessage `json:"auth_info,omitempty"`

	// Other is the device's free-form key-value map. Values are kept as
	// sent, whatever their JSON type.
	Other map[string]json.RawMessage `json:"other,omitempty"`
}

// Location is a device position. Either coordinate may be absent.
type Location struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

// DeepCopy returns a copy that shares no mutable state with d.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	cpy.Tags = slices.Clone(d.Tags)
	if d.Other != nil {
		cpy.Other = make(map[string]json.RawMessage, len(d.Other))
		for k, v := range d.Other {
			cpy.Other[k] = slices.Clone(v)
		}
	}
	cpy.AuthInfo = slices.Clone(d.AuthInfo)

	if d.Location != nil {
		loc := Location{}
		if d.Location.Lon != nil {
			lon := *d.Location.Lon
			loc.Lon = &lon
		}
		if d.Location.Lat != nil {
			lat := *d.Location.Lat
			loc.Lat = &lat
		}
		cpy.Location = &loc
	}
	if d.Private != nil {
		p := *d.Private
		cpy.Private = &p
	}

	return &cpy
}

// Op names a cache mutation.
type Op string

// Cache mutations reported to OnChange observers. OpSnapshot is not a
// mutation; it labels the state returned by Cache.Snapshot.
const (
	OpReplace  Op = "replace"
	OpMerge    Op = "merge"
	OpClear    Op = "clear"
	OpSnapshot Op = "snapshot"
)

// Change describes a committed cache mutation.
type Change struct {
	Op Op `json:"op"`
	// IDs are the ids touched by the mutation, in input order.
	IDs []string `json:"ids"`
	// Total is the cache size after the mutation.
	Total int `json:"total"`
}
