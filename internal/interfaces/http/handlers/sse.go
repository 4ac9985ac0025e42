package handlers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/meridiancap/riskradar/internal/stream"
)

// sseEmitter adapts the orchestrators' Emitter contract onto gin's SSE
// framing, flushing after every event so clients see progress immediately.
// Emit is serialized; orchestrators may call it from progress callbacks.
type sseEmitter struct {
	c  *gin.Context
	mu sync.Mutex
}

var _ stream.Emitter = (*sseEmitter)(nil)

// newSSEEmitter writes the SSE response header and returns the emitter.
func newSSEEmitter(c *gin.Context) *sseEmitter {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()
	return &sseEmitter{c: c}
}

func (e *sseEmitter) Emit(event string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.c.SSEvent(event, payload)
	e.c.Writer.Flush()
}
