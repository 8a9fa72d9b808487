package domain

// StreamEventKind discriminates stream events.
type StreamEventKind string

// Stream event kinds. Done and Error are terminal.
const (
	StreamChunk StreamEventKind = "chunk"
	StreamDone  StreamEventKind = "done"
	StreamError StreamEventKind = "error"
)

// StreamEvent is one element of a response stream. A well-formed stream is
// zero or more chunks followed by exactly one terminal event.
type StreamEvent struct {
	Kind StreamEventKind
	Text string
}

// ChunkEvent wraps a text fragment.
func ChunkEvent(text string) StreamEvent {
	return StreamEvent{Kind: StreamChunk, Text: text}
}

// DoneEvent is the completion marker.
func DoneEvent() StreamEvent {
	return StreamEvent{Kind: StreamDone}
}

// ErrorEvent is the failure marker carrying a message.
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Kind: StreamError, Text: message}
}

// IsTerminal reports whether the event ends the stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Kind == StreamDone || e.Kind == StreamError
}
