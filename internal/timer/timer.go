// Package timer provides periodic and one-shot event sources that are drained
// the same way as a subscription: TryTakeElapsedEvent never blocks and yields
// at most one event per call.
//
// Whether a deadline has passed is computed from the clock when the owner
// drains, so a timer behaves identically under a real or a mock clock. The
// background goroutine only wakes the owner; it never produces events itself.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrInvalidSchedule is returned for schedules that can never fire sensibly.
var ErrInvalidSchedule = errors.New("timer: invalid schedule")

// Schedule says when a timer fires.
type Schedule struct {
	periodic bool
	interval time.Duration
	delay    time.Duration // one-shot, relative to creation
	deadline time.Time     // one-shot, absolute
}

// Every fires periodically, first one interval after the timer is created.
func Every(interval time.Duration) Schedule {
	return Schedule{periodic: true, interval: interval}
}

// After fires once, delay after the timer is created.
func After(delay time.Duration) Schedule {
	return Schedule{delay: delay}
}

// At fires once at deadline. A deadline in the past fires on the first drain.
func At(deadline time.Time) Schedule {
	return Schedule{deadline: deadline}
}

// Periodic reports whether the schedule repeats.
func (s Schedule) Periodic() bool {
	return s.periodic
}

func (s Schedule) String() string {
	switch {
	case s.periodic:
		return fmt.Sprintf("every %s", s.interval)
	case !s.deadline.IsZero():
		return fmt.Sprintf("at %s", s.deadline.Format(time.RFC3339Nano))
	default:
		return fmt.Sprintf("after %s", s.delay)
	}
}

// CatchUpPolicy decides what a periodic timer yields when several intervals
// passed since the last drain.
type CatchUpPolicy int

const (
	// CatchUpCoalesce folds every missed deadline into one event whose Missed
	// field counts the folded ones.
	CatchUpCoalesce CatchUpPolicy = iota
	// CatchUpQueue yields one event per deadline, oldest first.
	CatchUpQueue
)

func (p CatchUpPolicy) String() string {
	switch p {
	case CatchUpCoalesce:
		return "coalesce"
	case CatchUpQueue:
		return "queue"
	default:
		return "unknown"
	}
}

// ParseCatchUpPolicy parses "coalesce" or "queue".
func ParseCatchUpPolicy(s string) (CatchUpPolicy, error) {
	switch s {
	case "coalesce", "":
		return CatchUpCoalesce, nil
	case "queue":
		return CatchUpQueue, nil
	default:
		return 0, fmt.Errorf("unknown catch-up policy %q", s)
	}
}

// Elapsed is the event a timer yields.
type Elapsed struct {
	// Deadline is the scheduled time this event stands for. For a coalesced
	// event it is the latest deadline folded into it.
	Deadline time.Time
	// Missed counts earlier deadlines folded into this event.
	Missed int
}

// Option configures a Timer.
type Option func(*Timer)

// WithCatchUp selects the catch-up policy. The default is CatchUpCoalesce.
func WithCatchUp(policy CatchUpPolicy) Option {
	return func(t *Timer) {
		t.policy = policy
	}
}

// Timer is an event source owned by one actor.
type Timer struct {
	name   string
	clock  clock.Clock
	sched  Schedule
	policy CatchUpPolicy

	mu        sync.Mutex
	next      time.Time // earliest deadline not yet counted
	first     time.Time // earliest counted, untaken deadline
	due       int       // counted, untaken deadlines
	exhausted bool      // no further deadlines will be counted
	notify    func()

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a timer on clk. The schedule starts counting immediately.
func New(clk clock.Clock, name string, sched Schedule, opts ...Option) (*Timer, error) {
	if (sched.periodic && sched.interval <= 0) || (!sched.periodic && sched.delay < 0) {
		return nil, fmt.Errorf("%w: %s for timer %q", ErrInvalidSchedule, sched, name)
	}

	now := clk.Now()
	t := &Timer{
		name:   name,
		clock:  clk,
		sched:  sched,
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	switch {
	case sched.periodic:
		t.next = now.Add(sched.interval)
	case !sched.deadline.IsZero():
		t.next = sched.deadline
	default:
		t.next = now.Add(sched.delay)
	}

	t.startWaker(now)
	return t, nil
}

func (t *Timer) startWaker(now time.Time) {
	t.wg.Add(1)
	if t.sched.periodic {
		ticker := t.clock.Ticker(t.sched.interval)
		go func() {
			defer t.wg.Done()
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					t.wake()
				case <-t.stopCh:
					return
				}
			}
		}()
		return
	}

	delay := t.next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	fired := make(chan struct{}, 1)
	oneShot := t.clock.AfterFunc(delay, func() {
		fired <- struct{}{}
	})
	go func() {
		defer t.wg.Done()
		defer oneShot.Stop()
		select {
		case <-fired:
			t.wake()
		case <-t.stopCh:
		}
	}()
}

func (t *Timer) wake() {
	t.mu.Lock()
	notify := t.notify
	t.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// SetNotify installs the callback run when a deadline passes. The owning
// actor uses it to wake its scheduler; it must not block.
func (t *Timer) SetNotify(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = fn
}

// collectLocked counts every deadline that has passed since the last call.
func (t *Timer) collectLocked() {
	if t.exhausted {
		return
	}
	now := t.clock.Now()
	if now.Before(t.next) {
		return
	}

	n := 1
	if t.sched.periodic {
		n = int(now.Sub(t.next)/t.sched.interval) + 1
	} else {
		t.exhausted = true
	}

	if t.due == 0 {
		t.first = t.next
	}
	t.due += n
	if t.sched.periodic {
		t.next = t.next.Add(time.Duration(n) * t.sched.interval)
	}
}

// TryTakeElapsedEvent returns at most one pending event. It never blocks.
func (t *Timer) TryTakeElapsedEvent() (Elapsed, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.collectLocked()
	if t.due == 0 {
		return Elapsed{}, false
	}

	if t.policy == CatchUpQueue || !t.sched.periodic {
		ev := Elapsed{Deadline: t.first}
		t.due--
		t.first = t.first.Add(t.sched.interval)
		return ev, true
	}

	ev := Elapsed{
		Deadline: t.first.Add(time.Duration(t.due-1) * t.sched.interval),
		Missed:   t.due - 1,
	}
	t.due = 0
	return ev, true
}

// Pending returns how many events TryTakeElapsedEvent would yield right now.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.collectLocked()
	if t.due > 0 && t.policy == CatchUpCoalesce {
		return 1
	}
	return t.due
}

// Name returns the timer's diagnostic name.
func (t *Timer) Name() string {
	return t.name
}

// Schedule returns the timer's schedule.
func (t *Timer) Schedule() Schedule {
	return t.sched
}

// Stop halts wake-ups. Deadlines that had already passed stay takeable;
// later ones are never counted.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.collectLocked()
		t.exhausted = true
		t.mu.Unlock()

		close(t.stopCh)
		t.wg.Wait()
	})
}
