package mqtt

import "strings"

// DefaultTopicPrefix roots every console topic when none is configured.
const DefaultTopicPrefix = "onenetconsole"

// Topics builds the console's topic names under a prefix.
//
//	topics := mqtt.Topics{Prefix: "onenetconsole"}
//	topics.CacheDevices() // "onenetconsole/cache/devices"
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultTopicPrefix
	}
	return p
}

// Status is the retained console online/offline topic, also the LWT topic.
func (t Topics) Status() string {
	return t.root() + "/system/status"
}

// CacheDevices carries device cache change events.
func (t Topics) CacheDevices() string {
	return t.root() + "/cache/devices"
}

// Datapoints carries datapoints fetched through the console for one device.
func (t Topics) Datapoints(deviceID string) string {
	return t.root() + "/datapoints/" + sanitiseLevel(deviceID)
}

// sanitiseLevel keeps a value inside one topic level.
func sanitiseLevel(s string) string {
	return strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(s)
}
