package models

import "time"

// Diagnostic log entry kinds.
const (
	LogStorageError   = "storage-error"
	LogFetchError     = "fetch-error"
	LogMessagingError = "messaging-error"
	LogRuntimeError   = "runtime-error"
)

// MaxLogEntries caps the diagnostic log; oldest entries are evicted first.
const MaxLogEntries = 100

// LogEntry is one diagnostic record. Diagnostic only, never read by any
// control-flow path.
type LogEntry struct {
	TS      time.Time         `json:"ts"`
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}
