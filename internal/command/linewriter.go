package command

import (
	"bytes"
	"sync"
	"time"

	"github.com/nadnerb/rufus-scheduler/internal/logger"
)

// lineWriter splits command output into lines and feeds them into the
// shared output ring buffer.
type lineWriter struct {
	buffer  *logger.Buffer
	jobName string
	stream  string

	mu      sync.Mutex
	partial bytes.Buffer
}

func newLineWriter(buffer *logger.Buffer, jobName, stream string) *lineWriter {
	return &lineWriter{buffer: buffer, jobName: jobName, stream: stream}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		line, err := w.partial.ReadString('\n')
		if err != nil {
			// Keep the incomplete tail for the next write.
			w.partial.Reset()
			w.partial.WriteString(line)
			break
		}
		w.emit(line[:len(line)-1])
	}
	return len(p), nil
}

func (w *lineWriter) emit(line string) {
	if line == "" {
		return
	}
	w.buffer.Add(logger.Entry{
		Timestamp: time.Now(),
		JobName:   w.jobName,
		Stream:    w.stream,
		Message:   line,
	})
}
