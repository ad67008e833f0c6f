package log

import "time"

// Logger is the structured logger every diary component writes to.
// Messages are short lowercase phrases; details go in fields.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key/value pair attached to a log message.
type Field struct {
	Key   string
	Value any
}

// String attaches a text value such as a backend name or a phase.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int attaches a count, for example the number of loaded spots.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 attaches a spot identifier.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Duration attaches a delay or timeout.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Err attaches err under the key "error".
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
