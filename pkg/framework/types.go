package framework

import (
	"context"
	"time"
)

// Named is implemented by Runnables reporting a name in logs.
type Named interface {
	Name() string
}

// Runnable is a background task bound to a context.
type Runnable interface {
	Run(context.Context) error
}

// Message is posted to the loop and consumed by controllers in the
// next iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// Stopper is implemented by controllers which must clean up when the
// loop stops. Stop is called on the loop goroutine after the last
// iteration.
type Stopper interface {
	Stop() error
}

// ControlContext is what a Controller sees of the current iteration.
type ControlContext interface {
	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	PriorityLevel() int
	// Messages holds the messages posted before the iteration started.
	Messages() MessageStore

	LoopControl
}

// PriorityLevels is the number of priority levels. Level 0 runs first.
const PriorityLevels int = 8

// Priority levels.
const (
	PrLvTop int = 0
	// PrLvExchange runs the L0 exchanges with the peers.
	PrLvExchange int = 2
	// PrLvPublish runs after the exchanges to publish their results.
	PrLvPublish int = 6
	PrLvIdle    int = PriorityLevels - 1
)

// LoopControl is safe to use from any goroutine.
type LoopControl interface {
	// PostMessage enqueues the message for the next iteration.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the
	// interval.
	TriggerNext()
}

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	ProcessMessages(MessageProcessor)
}

// MessageProcessor visits the messages of a MessageStore.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the message being visited.
type MessageProcessingContext interface {
	CurrentMessage() Message
	// MessageTaken removes the message so controllers at lower
	// priorities don't see it.
	MessageTaken()
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
