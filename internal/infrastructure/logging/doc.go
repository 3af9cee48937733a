// Package logging provides the console's structured logger, a thin wrapper
// over log/slog.
//
// Output is JSON by default and text when logging.format is "text". Every
// entry carries service and version fields:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Attributes named api_key, access_key, authorization, token, password or
// secret are replaced with [REDACTED] at any group depth. OneNET
// credentials should still be logged by prefix only:
//
//	logger.Info("credential supplied", "key_prefix", key[:4]+"...")
package logging
