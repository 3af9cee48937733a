// Package influxdb mirrors OneNET datapoints into InfluxDB.
//
// Every numeric datapoint the console fetches from OneNET (v1 datapoint
// queries and v2 history queries) is written to the onenet_datapoints
// measurement, tagged by device, datastream and API generation, so that
// history outlives OneNET's own retention window.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDatapoint(influxdb.Datapoint{DeviceID: "1001", Datastream: "temp", Value: 21.5})
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Asynchronous write failures are reported through SetOnError.
package influxdb
