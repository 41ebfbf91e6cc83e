package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that writes one line per handled event. Attach it to
// an engine.
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger returns an EventLogger that writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func logs the event before it is handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "-"
	if named, ok := evt.Handler().(Named); ok {
		target = named.Name()
	}

	t := reflect.TypeOf(evt)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	h.logger.Printf("%.10f %s -> %s", evt.Time(), t.Name(), target)
}
