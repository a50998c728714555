package log

import (
	"fmt"
	"sync"
	"time"
)

// HTTP request log entries are kept apart from the main log buffer
var httpLogBuffer *LogBuffer
var httpLogBufferOnce sync.Once

// GetHTTPLogBuffer returns the HTTP log buffer instance, creating it if necessary
func GetHTTPLogBuffer() *LogBuffer {
	httpLogBufferOnce.Do(func() {
		httpLogBuffer = NewLogBuffer(1000)
	})
	return httpLogBuffer
}

// HTTPRequest describes one served request
type HTTPRequest struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	// ChartID is set when the request persisted or fetched a chart
	ChartID string
	Err     error
}

// LogHTTPRequest records a request in the HTTP log buffer
func LogHTTPRequest(r HTTPRequest) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   fmt.Sprintf("%s %s %d %v %d bytes", r.Method, r.Path, r.Status, r.Duration, r.Size),
		Fields: map[string]any{
			"method":      r.Method,
			"path":        r.Path,
			"status":      r.Status,
			"duration_ms": r.Duration.Milliseconds(),
			"size":        r.Size,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.UserAgent,
		},
	}

	if r.ChartID != "" {
		entry.Fields["chart_id"] = r.ChartID
	}

	switch {
	case r.Err != nil:
		entry.Level = "error"
		entry.Fields["error"] = r.Err.Error()
	case r.Status >= 500:
		entry.Level = "error"
	case r.Status >= 400:
		entry.Level = "warn"
	}

	GetHTTPLogBuffer().AddEntry(entry)
}
