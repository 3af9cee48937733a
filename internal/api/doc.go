// Package api implements the OneNET console's HTTP API and WebSocket server.
//
// This package provides:
//   - Proxy routes for both OneNET generations (/api/v1/..., /api/v2/...)
//   - Device cache routes (/api/cache/devices)
//   - v2 capability token minting and verification (/api/token)
//   - An optional operator session (/api/auth/login, cookie based)
//   - WebSocket hub broadcasting cache.devices and datapoints events
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//
// # Credentials
//
// Each proxy route belongs to one API generation. Its outbound credential
// comes from the browser's header for that generation (api-key for v1,
// Authorization for v2) or, failing that, from configuration. A route with
// neither answers 400 (v1) or 401 (v2) in the generation's envelope
// without contacting OneNET.
//
// # Responses
//
// Whatever envelope OneNET returns is relayed unchanged with OneNET's
// status. Local failures are rendered in the route's envelope: transport
// errors as 500 and undecodable replies as 502.
//
// # Fan-out
//
// Successful v1 device queries fold into the device cache. Every committed
// cache change is broadcast on the cache.devices channel and, when MQTT is
// enabled, published to the bus. Fetched datapoints are mirrored to
// InfluxDB when it is enabled.
package api
