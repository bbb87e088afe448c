package application

import (
	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// Mock provides a mock implementation of Application for testing.
// If a function field is nil, the method returns a default value.
type Mock struct {
	ClientFunc       func(opts ...gearsync.Option) (gearsync.Client, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	ThresholdValue   float64
	HistoryPathValue string
	VersionFunc      func() string
}

// Client returns a client using the mock function, or a default client.
func (m *Mock) Client(opts ...gearsync.Option) (gearsync.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(opts...)
	}
	return gearsync.New(opts...)
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Threshold returns ThresholdValue or the default threshold.
func (m *Mock) Threshold() float64 {
	if m.ThresholdValue > 0 {
		return m.ThresholdValue
	}
	return matcher.DefaultThreshold
}

// HistoryPath returns HistoryPathValue.
func (m *Mock) HistoryPath() string {
	return m.HistoryPathValue
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)
