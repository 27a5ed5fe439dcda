// ABOUTME: Event types delivered to client sessions
// ABOUTME: Constructors for stream tokens, notices, acks, completion, and errors

package stream

// EventType tags an Event.
type EventType string

// Event types.
const (
	TypeStream   EventType = "stream"
	TypeNotice   EventType = "notice"
	TypeAck      EventType = "ack"
	TypeDone     EventType = "done"
	TypeError    EventType = "error"
	TypeMetadata EventType = "metadata"
)

// Level is the severity of a notice.
type Level string

// Notice levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event is one message delivered to a session.
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	Level     Level          `json:"level,omitempty"`
	Degraded  bool           `json:"degraded,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Terminal reports whether the event ends a request.
func (e Event) Terminal() bool {
	return e.Type == TypeDone || e.Type == TypeError
}

// Token is a chunk of answer text. degraded marks backend diagnostics.
func Token(requestID, text string, degraded bool) Event {
	return Event{Type: TypeStream, RequestID: requestID, Content: text, Degraded: degraded}
}

// Notice is an out-of-band system message.
func Notice(requestID string, level Level, text string) Event {
	return Event{Type: TypeNotice, RequestID: requestID, Level: level, Content: text}
}

// Ack confirms that a request was accepted.
func Ack(requestID string) Event {
	return Event{Type: TypeAck, RequestID: requestID}
}

// Done completes a request.
func Done(requestID string, meta map[string]any) Event {
	return Event{Type: TypeDone, RequestID: requestID, Metadata: meta}
}

// Error ends a request with a failure message.
func Error(requestID, message string) Event {
	return Event{Type: TypeError, RequestID: requestID, Content: message, Level: LevelError}
}

// Metadata carries non-answer data such as the model catalog.
func Metadata(requestID string, meta map[string]any) Event {
	return Event{Type: TypeMetadata, RequestID: requestID, Metadata: meta}
}

// Sink accepts events for a session. Emit is fire-and-forget.
type Sink interface {
	Emit(sessionID string, ev Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(sessionID string, ev Event)

func (f SinkFunc) Emit(sessionID string, ev Event) { f(sessionID, ev) }
