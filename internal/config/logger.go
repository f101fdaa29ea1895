package config

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/evenger-io/evenger/internal/models"
)

const DefaultRecorderSize = 500

// RunRecorder is a logrus hook keeping the most recent warnings and errors
// in a ring buffer, so a command can summarise what went wrong in a run.
type RunRecorder struct {
	eventBuffer []*models.LogEntry
	maxSize     int
	currentPos  int
	isFull      bool
	mu          sync.RWMutex
}

func NewRunRecorder(size int) *RunRecorder {
	if size <= 0 {
		size = DefaultRecorderSize
	}
	return &RunRecorder{
		eventBuffer: make([]*models.LogEntry, size),
		maxSize:     size,
	}
}

func (t *RunRecorder) Fire(entry *logrus.Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer[t.currentPos] = models.NewLogEntry(entry)
	t.currentPos = (t.currentPos + 1) % t.maxSize

	if t.currentPos == 0 {
		t.isFull = true
	}

	return nil
}

func (t *RunRecorder) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
	}
}

func (t *RunRecorder) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.eventBuffer = make([]*models.LogEntry, t.maxSize)
	t.currentPos = 0
	t.isFull = false
}

// GetEvents returns the recorded entries, oldest first.
func (t *RunRecorder) GetEvents() []*models.LogEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.isFull {
		result := make([]*models.LogEntry, t.currentPos)
		copy(result, t.eventBuffer[:t.currentPos])
		return result
	}

	result := make([]*models.LogEntry, t.maxSize)
	copy(result, t.eventBuffer[t.currentPos:])
	copy(result[t.maxSize-t.currentPos:], t.eventBuffer[:t.currentPos])
	return result
}

// GetRunEvents returns the entries logged with the given run id.
func (t *RunRecorder) GetRunEvents(runID string) []*models.LogEntry {
	var events []*models.LogEntry
	for _, entry := range t.GetEvents() {
		if id, ok := entry.Data["run"].(string); ok && id == runID {
			events = append(events, entry)
		}
	}
	return events
}

func (t *RunRecorder) CountErrors() int {
	count := 0
	for _, entry := range t.GetEvents() {
		if entry.Level <= logrus.ErrorLevel {
			count++
		}
	}
	return count
}
