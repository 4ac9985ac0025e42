// Package stream defines the server-to-client push channel contract shared
// by every long-running orchestrator: single analysis, batch analysis,
// portfolio batch-add, and news scan all emit the same tagged event stream.
// The HTTP layer adapts an Emitter onto SSE framing; tests substitute a
// recording emitter.
package stream

// Canonical event names.  These are part of the external interface and must
// not change without coordinating with stream consumers.
const (
	EventProgress        = "progress"
	EventBatchStart      = "batch_start"
	EventCompanyStart    = "company_start"
	EventCompanyComplete = "company_complete"
	EventCompanyError    = "company_error"
	EventBatchComplete   = "batch_complete"
	EventComplete        = "complete"
	EventExistingAdded   = "existing_added"
	EventError           = "error"
)

// Emitter pushes one named event with a JSON-serialisable payload to the
// client.  Implementations must deliver events in emission order.  Emit is
// best-effort: a disconnected client must not fail the orchestrator, which
// observes cancellation through its context instead.
type Emitter interface {
	Emit(event string, payload interface{})
}

// Progress is the payload for EventProgress.  Step/TotalSteps drive the
// single-analysis progress bar; batch variants add Index and CompanyName.
type Progress struct {
	Message     string `json:"message"`
	Step        int    `json:"step,omitempty"`
	TotalSteps  int    `json:"totalSteps,omitempty"`
	Index       *int   `json:"index,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// ErrorPayload is the payload for EventError, ending the stream.
type ErrorPayload struct {
	Message string `json:"message"`
}
