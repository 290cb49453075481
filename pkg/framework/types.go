package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Event is what interrupt-like sources hand over to the loop.
// Any value can be an event, tasks type-switch on them.
type Event interface{}

// Task is the logic executed in each loop iteration.
type Task interface {
	Step(StepContext) error
}

// StepFunc is the func form of Task.
type StepFunc func(StepContext) error

// Step implements Task.
func (f StepFunc) Step(sc StepContext) error {
	return f(sc)
}

// StepContext provides the context of the current iteration.
type StepContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// Events retrieves all events collected when
	// this iteration starts.
	Events() EventStore

	LoopControl
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1
)

// LoopControl exposes access to the loop from other goroutines.
type LoopControl interface {
	// Post enqueues the event for the next iteration.
	Post(Event)
	// TriggerNext schedules the next iteration to be executed
	// immediately after the current iteration.
	TriggerNext()
}

// EventStore provides access to the events of an iteration.
type EventStore interface {
	ProcessEvents(EventProcessor)
}

// EventProcessor is used by EventStore to process events.
type EventProcessor interface {
	ProcessEvent(EventProcessingContext)
}

// ProcessEventFunc is the func form of EventProcessor.
type ProcessEventFunc func(EventProcessingContext)

// ProcessEvent implements EventProcessor.
func (f ProcessEventFunc) ProcessEvent(ec EventProcessingContext) {
	f(ec)
}

// EventProcessingContext provides context for current event.
type EventProcessingContext interface {
	// CurrentEvent gets the current event being processed.
	CurrentEvent() Event
	// EventTaken removes the event from the store.
	EventTaken()
	// StopProcessing indicates no need to examine further events.
	StopProcessing()
}
