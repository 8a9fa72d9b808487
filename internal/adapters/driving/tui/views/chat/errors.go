package chat

import "errors"

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service is required")

// StreamError is an error event received from an answer stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}
