// Package logging decouples the rest of the codebase from the concrete
// logging framework. Components receive a Logger through their constructor
// and never touch logrus directly.
package logging

// Logger is the structured logging interface used throughout the
// application.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError returns a derived logger with an error field attached.
	WithError(err error) Logger
	// WithField returns a derived logger with a single field attached.
	WithField(key string, value interface{}) Logger
	// WithFields returns a derived logger with multiple fields attached.
	WithFields(fields ...Field) Logger

	Fatal(msg string, fields ...Field)
}

// Field is a key-value pair attached to a structured log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for constructing a Field at a call site.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
