// Package auth protects the OneNET console with an optional operator session.
//
// The console has a single operator. When security.console_auth is enabled
// the operator logs in with a password checked against an Argon2id PHC hash
// and receives an HS256 JWT carried in a cookie, leaving the Authorization
// header free for forwarded OneNET v2 tokens. Logout revokes the session's
// jti until it would have expired.
package auth
