package utils

import (
	"strings"

	"travelatlas/internal/logging"
)

// LogEvent writes the standard module/action/request_id line.
// Avoid logging sensitive payload; message should be summarized.
func LogEvent(requestID, module, action, message string) {
	logging.Info().
		Str("module", strings.ToLower(module)).
		Str("action", action).
		Str("request_id", strings.TrimSpace(requestID)).
		Msg(message)
}

// LogFailure is LogEvent at error level with the cause attached.
func LogFailure(requestID, module, action string, err error) {
	logging.Error().
		Str("module", strings.ToLower(module)).
		Str("action", action).
		Str("request_id", strings.TrimSpace(requestID)).
		Err(err).
		Msg(action + " failed")
}
