package framework

import (
	"context"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Stepper advances by exactly one tick. It must not block.
type Stepper interface {
	Step(TickContext) error
}

// StepFunc is the func form of Stepper.
type StepFunc func(TickContext) error

// Step implements Stepper.
func (f StepFunc) Step(tc TickContext) error {
	return f(tc)
}

// TickContext provides the context of the current tick.
type TickContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Tick is the number of the current tick, starting from 0.
	Tick() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
}

// ClockAdder provides specific logic to add components to a Clock.
type ClockAdder interface {
	AddToClock(*Clock)
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefined priority levels. Within one tick, lower levels step first,
// so everything at one level observes the committed state of lower ones.
const (
	PrLvTop  int = 0
	PrLvIdle int = PriorityLevels - 1

	// PrLvTransmit steps bit-level transmitters.
	PrLvTransmit int = 2
	// PrLvLine applies line faults and traces after transmitters drove it.
	PrLvLine int = 4
	// PrLvReceive steps bit-level receivers sampling the line.
	PrLvReceive int = 6
	// PrLvFrame steps byte-level framers and deframers.
	PrLvFrame int = 8
	// PrLvDeliver hands completed packets to consumers.
	PrLvDeliver int = 12
)
