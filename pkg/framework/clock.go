package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Clock is the shared time base. Each tick, it steps all registered
// Steppers in priority order, lowest level first and in registration
// order within a level.
type Clock struct {
	// Interval paces ticks in real time. 0 means free-running.
	Interval time.Duration

	levels  [PriorityLevels][]Stepper
	runners []Runnable
	tick    uint64
	lock    sync.Mutex
}

type tickContext struct {
	ctx           context.Context
	tick          uint64
	priorityLevel int
}

func (t *tickContext) Context() context.Context { return t.ctx }
func (t *tickContext) Tick() uint64              { return t.tick }
func (t *tickContext) PriorityLevel() int        { return t.priorityLevel }

// NewClock creates a free-running Clock.
func NewClock() *Clock {
	return &Clock{}
}

// Add adds ClockAdders.
func (c *Clock) Add(adders ...ClockAdder) *Clock {
	for _, adder := range adders {
		adder.AddToClock(c)
	}
	return c
}

// AddStepper registers steppers at a priority level.
func (c *Clock) AddStepper(priorityLevel int, steppers ...Stepper) *Clock {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.levels[priorityLevel] = append(c.levels[priorityLevel], steppers...)
	for _, s := range steppers {
		if runner, ok := s.(Runnable); ok {
			c.runners = append(c.runners, runner)
		}
	}
	return c
}

// AddRunnable adds Runnables started along with Run.
func (c *Clock) AddRunnable(runnables ...Runnable) *Clock {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.runners = append(c.runners, runnables...)
	return c
}

// Tick returns the number of ticks elapsed.
func (c *Clock) Tick() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tick
}

// Step runs one tick. Errors of all steppers are aggregated; a failing
// stepper doesn't prevent the others from stepping.
func (c *Clock) Step(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	tc := &tickContext{ctx: ctx, tick: c.tick}
	var errs AggregatedError
	for lv := range c.levels {
		tc.priorityLevel = lv
		for _, s := range c.levels[lv] {
			errs.Add(s.Step(tc))
		}
	}
	c.tick++
	return errs.Aggregate()
}

// StepN runs n ticks, stopping at the first error or when ctx is done.
func (c *Clock) StepN(ctx context.Context, n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run implements Runnable. It ticks until ctx is done; stepper errors
// are logged and don't stop the clock.
func (c *Clock) Run(ctx context.Context) error {
	c.lock.Lock()
	runners := c.runners
	c.lock.Unlock()
	runner := NewRunnerWith(ctx)
	runner.Go(runners...)
	defer runner.Wait()

	var ticker <-chan time.Time
	if c.Interval > 0 {
		t := time.NewTicker(c.Interval)
		defer t.Stop()
		ticker = t.C
	}
	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Step(ctx); err != nil {
			glog.Errorf("tick %d: %v", c.Tick()-1, err)
		}
	}
}
