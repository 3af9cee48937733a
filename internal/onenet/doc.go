// Package onenet is the console's adapter to the OneNET device-management API.
//
// OneNET exposes two incompatible API generations:
//
//   - v1: key-based. The credential travels in an "api-key" header and
//     responses use the {errno, error, data} envelope.
//   - v2: token-based. The credential is a signed capability string in the
//     "Authorization" header and responses use the
//     {code, msg, request_id, data} envelope.
//
// The package covers three concerns:
//
//   - Credentials: signing capability strings (SignCapability), minting
//     bearer tokens locally or through a token service (TokenMinter), and
//     choosing the header for a version (SelectHeaders).
//   - Wire schemas: the two envelopes are distinct types behind the Response
//     interface, as are the two storage-quota payloads. They are never
//     unified into one shape.
//   - Transport: Client issues one attempt per call with the caller's
//     context and returns the decoded, version-tagged Response.
//
// # Signed capability format
//
//	version=2022-05-01&res=<res>&et=<unix>&method=<md5|sha1|sha256>&sign=<sig>
//
// sig is base64(HMAC(key, et "\n" method "\n" res "\n" version)), keyed by
// the base64-decoded secret. res and sig are percent-encoded with every
// reserved character escaped.
//
// # Usage
//
//	client := onenet.NewClient(onenet.ClientConfig{V1BaseURL: v1, V2BaseURL: v2})
//	auth := onenet.AuthContext{Version: onenet.VersionV1, APIKey: key}
//	page, _, err := client.QueryDevices(ctx, auth, onenet.DeviceQuery{Page: 1, PerPage: 30})
package onenet
