// Package mqtt publishes OneNET console events to an MQTT broker.
//
// The console is a producer only. It announces itself on a retained status
// topic (with a Last Will for unexpected exits) and mirrors device cache
// changes and fetched datapoints so other local services can follow along
// without polling OneNET.
//
// Topic layout under the configured prefix:
//
//	<prefix>/system/status          retained online/offline status, LWT
//	<prefix>/cache/devices          retained latest cache change
//	<prefix>/datapoints/<device-id> datapoints fetched through the console
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	_ = client.PublishCacheEvent(change)
package mqtt
