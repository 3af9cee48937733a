// Package panel serves the embedded operator console for the OneNET proxy.
//
// The console is a small static page (HTML, CSS, vanilla JS) that drives the
// /api routes, shows the device cache and follows cache.devices events over
// the WebSocket. It is compiled into the binary with go:embed; setting
// console.web_dir serves a directory instead.
package panel
