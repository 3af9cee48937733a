// Package audit records operator activity in the console.
//
// Every action that changes state, on OneNET or in the local device cache,
// is written to the activity_log table along with the HTTP outcome the
// operator saw. Read-only proxy calls are not recorded.
package audit
