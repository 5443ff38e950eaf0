package logging

import "sync"

// LogEntry is a single recorded log call.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
}

// MockLogger records log calls for assertions in tests. Safe for concurrent
// use, since ingestion tests log from worker goroutines.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
	fields  []Field
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) record(level, msg string, fields []Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := append(append([]Field{}, m.fields...), fields...)
	m.entries = append(m.entries, LogEntry{Level: level, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...Field) { m.record("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...Field)  { m.record("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...Field)  { m.record("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...Field) { m.record("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...Field) { m.record("fatal", msg, fields) }

func (m *MockLogger) WithError(err error) Logger {
	return m.WithField("error", err)
}

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

func (m *MockLogger) WithFields(fields ...Field) Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Derived loggers write back to the parent recorder so tests can assert
	// on one recorder regardless of which derived logger a component used.
	merged := append(append([]Field{}, m.fields...), fields...)
	return &sharedMock{parent: m, fields: merged}
}

// sharedMock is a derived logger writing back to its parent recorder.
type sharedMock struct {
	parent *MockLogger
	fields []Field
}

func (s *sharedMock) Debug(msg string, fields ...Field) {
	s.parent.record("debug", msg, append(s.fields, fields...))
}
func (s *sharedMock) Info(msg string, fields ...Field) {
	s.parent.record("info", msg, append(s.fields, fields...))
}
func (s *sharedMock) Warn(msg string, fields ...Field) {
	s.parent.record("warn", msg, append(s.fields, fields...))
}
func (s *sharedMock) Error(msg string, fields ...Field) {
	s.parent.record("error", msg, append(s.fields, fields...))
}
func (s *sharedMock) Fatal(msg string, fields ...Field) {
	s.parent.record("fatal", msg, append(s.fields, fields...))
}
func (s *sharedMock) WithError(err error) Logger {
	return &sharedMock{parent: s.parent, fields: append(s.fields, Field{Key: "error", Value: err})}
}
func (s *sharedMock) WithField(key string, value interface{}) Logger {
	return &sharedMock{parent: s.parent, fields: append(s.fields, Field{Key: key, Value: value})}
}
func (s *sharedMock) WithFields(fields ...Field) Logger {
	return &sharedMock{parent: s.parent, fields: append(s.fields, fields...)}
}

// Entries returns a copy of all recorded entries.
func (m *MockLogger) Entries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogEntry{}, m.entries...)
}

// HasEntry reports whether an entry with the given level and message was
// recorded.
func (m *MockLogger) HasEntry(level, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Level == level && e.Message == message {
			return true
		}
	}
	return false
}
