package services

import (
	"github.com/custodia-labs/canvasrag/internal/core/domain"
	"github.com/custodia-labs/canvasrag/internal/core/ports/driven"
	"github.com/custodia-labs/canvasrag/internal/logger"
)

// Ensure sinks implement the interface.
var (
	_ driven.EventSink = LogSink{}
	_ driven.EventSink = MultiSink(nil)
)

// LogSink writes events through the package logger.
type LogSink struct{}

// Emit renders the event as one log line.
func (LogSink) Emit(event domain.Event) {
	logger.Event(event.Component, event.Name, event.Fields)
}

// MultiSink fans an event out to several sinks. Nil entries are skipped.
type MultiSink []driven.EventSink

// Emit forwards the event to every sink.
func (m MultiSink) Emit(event domain.Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(event)
		}
	}
}

// emit sends an event to sink when one is configured.
func emit(sink driven.EventSink, component, name string, fields map[string]any) {
	if sink == nil {
		return
	}
	sink.Emit(domain.NewEvent(component, name, fields))
}
