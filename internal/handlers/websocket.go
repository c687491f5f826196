package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kraig/internal/jobs"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// logMessage is one frame on the job log stream.
type logMessage struct {
	Type  string `json:"type"` // "line" or "done"
	Value string `json:"value"`
}

// LogStreamHandler streams a job's agent output over a websocket.
// Writes are paced with a rate limiter so a log burst cannot saturate
// the connection; the per-job buffer absorbs the difference.
type LogStreamHandler struct {
	registry *jobs.Registry
	logger   arbor.ILogger
}

// NewLogStreamHandler creates the log stream handler.
func NewLogStreamHandler(registry *jobs.Registry, logger arbor.ILogger) *LogStreamHandler {
	return &LogStreamHandler{registry: registry, logger: logger}
}

// HandleLogStream upgrades /ws/{job_id} and streams history plus live
// lines until the job finishes or the client disconnects.
func (h *LogStreamHandler) HandleLogStream(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/ws/")
	job, ok := h.registry.Get(jobID)
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// Read pump: discard client frames, notice disconnects
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	history, lines := job.Subscribe()
	defer job.Unsubscribe(lines)

	limiter := rate.NewLimiter(rate.Limit(200), 50)
	send := func(msg logMessage) bool {
		if err := limiter.Wait(r.Context()); err != nil {
			return false
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return false
		}
		return conn.WriteMessage(websocket.TextMessage, data) == nil
	}

	if !send(logMessage{Type: "line", Value: "[web] Streaming started"}) {
		return
	}
	for _, line := range history {
		if !send(logMessage{Type: "line", Value: line}) {
			return
		}
	}

	for {
		select {
		case line := <-lines:
			if !send(logMessage{Type: "line", Value: line}) {
				return
			}
		case <-job.Done():
			// Drain lines that raced with completion
			for {
				select {
				case line := <-lines:
					if !send(logMessage{Type: "line", Value: line}) {
						return
					}
					continue
				default:
				}
				break
			}
			send(logMessage{Type: "done", Value: "done"})
			return
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
