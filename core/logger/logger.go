package logger

// Logger is the logging contract used across the dispatch service. Core
// packages depend on this interface only; the zerolog adapter lives in
// infra/logger.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a debug message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Errorw logs an error message with structured fields, for records
	// that downstream tooling filters on (job ids, technician ids).
	Errorw(msg string, fields map[string]any)
}

// StructuredLogger is the subset of Logger emitting field-tagged records.
type StructuredLogger interface {
	Debugw(msg string, fields map[string]any)
	Errorw(msg string, fields map[string]any)
}
