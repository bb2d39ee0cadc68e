package acmedns

import (
	"log"

	"github.com/sirupsen/logrus"
)

// EventSink receives structured events emitted by the orchestrator and
// the challenge state machine. No log level is prescribed here; the
// sink decides filtering. Sensitive fields — private key PEM, full
// signatures — are never passed to Emit by this package's own call
// sites.
type EventSink interface {
	Emit(event string, fields map[string]interface{})
}

// nopSink discards every event. It is the default when a Client is
// constructed without an explicit EventSink.
type nopSink struct{}

func (nopSink) Emit(string, map[string]interface{}) {}

// StdLogSink adapts EventSink to the standard library's log package,
// for callers who want zero extra dependencies.
type StdLogSink struct {
	*log.Logger
}

// NewStdLogSink returns an EventSink backed by the standard logger. A
// nil logger uses log.Default().
func NewStdLogSink(logger *log.Logger) *StdLogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &StdLogSink{Logger: logger}
}

func (s *StdLogSink) Emit(event string, fields map[string]interface{}) {
	s.Logger.Printf("%s %v", event, fields)
}

// LogrusSink adapts EventSink to github.com/sirupsen/logrus, giving
// callers a ready-to-use structured sink without writing their own
// adapter.
type LogrusSink struct {
	entry *logrus.Entry
}

// NewLogrusSink wraps a *logrus.Logger as an EventSink. A nil logger
// uses logrus.StandardLogger().
func NewLogrusSink(logger *logrus.Logger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{entry: logrus.NewEntry(logger)}
}

func (s *LogrusSink) Emit(event string, fields map[string]interface{}) {
	s.entry.WithFields(logrus.Fields(fields)).Info(event)
}
