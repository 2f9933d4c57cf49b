// Package logging decouples the reconciler from a concrete logging framework.
// Components receive a Logger through their constructors; production code uses
// the logrus-backed adapter and tests use MockLogger.
package logging

// Logger is the structured logging contract used across the reconciler.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a derived logger carrying err.
	WithError(err error) Logger

	// WithField returns a derived logger carrying a single field.
	WithField(key string, value interface{}) Logger

	// WithFields returns a derived logger carrying all given fields.
	WithFields(fields ...Field) Logger

	// Fatal logs and exits the process.
	Fatal(msg string, fields ...Field)

	// Fatalf logs a formatted message and exits the process.
	Fatalf(msg string, args ...interface{})
}

// Field is a key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for building a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
