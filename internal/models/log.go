package models

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry is a detached copy of a logrus entry.
type LogEntry struct {
	Data    logrus.Fields `json:"data,omitempty"`
	Time    time.Time     `json:"time"`
	Level   logrus.Level  `json:"level"`
	Message string        `json:"message,omitempty"`
}

func NewLogEntry(entry *logrus.Entry) *LogEntry {
	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	return &LogEntry{
		Data:    data,
		Time:    entry.Time,
		Level:   entry.Level,
		Message: entry.Message,
	}
}

// ErrorText returns the error attached with WithError, if any.
func (e *LogEntry) ErrorText() string {
	if msg, ok := e.Data[logrus.ErrorKey].(string); ok {
		return msg
	}
	return ""
}
