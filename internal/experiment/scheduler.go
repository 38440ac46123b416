package experiment

import "time"

// Task is a handle on a scheduled repeating callback.
type Task interface {
	Cancel()
}

// Scheduler runs fn every interval until the returned Task is cancelled.
type Scheduler interface {
	Every(interval time.Duration, fn func(now time.Time)) Task
}

// TickScheduler is a Scheduler driven by explicit Advance calls from the owner's
// event loop, so callbacks run on the caller's goroutine and never concurrently
// with input handling.
type TickScheduler struct {
	tasks []*tickTask
}

type tickTask struct {
	interval  time.Duration
	next      time.Time
	fn        func(now time.Time)
	cancelled bool
}

func (t *tickTask) Cancel() { t.cancelled = true }

func NewTickScheduler() *TickScheduler {
	return &TickScheduler{}
}

// Every registers fn. The first run is due one interval after the next Advance.
func (s *TickScheduler) Every(interval time.Duration, fn func(now time.Time)) Task {
	t := &tickTask{interval: interval, fn: fn}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance runs every task that is due at now, at most once per call.
func (s *TickScheduler) Advance(now time.Time) {
	// Callbacks may cancel or schedule tasks.
	due := append([]*tickTask(nil), s.tasks...)
	for _, t := range due {
		if t.cancelled {
			continue
		}
		if t.next.IsZero() {
			t.next = now.Add(t.interval)
			continue
		}
		if now.Before(t.next) {
			continue
		}
		t.next = now.Add(t.interval)
		t.fn(now)
	}

	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	clear(s.tasks[len(live):])
	s.tasks = live
}

// Pending reports how many tasks are still scheduled.
func (s *TickScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}
