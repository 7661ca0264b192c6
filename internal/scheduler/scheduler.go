// Package scheduler implements the bounded-concurrency work pool that
// drives a set of tasks: a waiting queue, an active set bounded by a
// fixed concurrency, and the dispatch routine that moves tasks between
// them as they start, pause, err, complete or cancel.
package scheduler

import (
	"sync"

	"github.com/resumeload/resumeload/internal/events"
	"github.com/resumeload/resumeload/internal/logging"
	"github.com/resumeload/resumeload/internal/task"
)

// Scheduler is the only component permitted to transition a task from
// idle to running. The zero value is not usable; construct with New.
type Scheduler struct {
	mu sync.Mutex

	concurrency int
	queue       []*task.Task
	active      []*task.Task
	subs        map[*task.Task][]events.Subscription

	running    bool
	processing bool
	pendingRun bool
}

// New constructs a Scheduler bounded to concurrency simultaneous active
// tasks. A non-positive concurrency falls back to 2.
func New(concurrency int) *Scheduler {
	if concurrency < 1 {
		concurrency = 2
	}
	return &Scheduler{
		concurrency: concurrency,
		subs:        make(map[*task.Task][]events.Subscription),
	}
}

// Concurrency returns the configured bound.
func (s *Scheduler) Concurrency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.concurrency
}

// ActiveCount returns the number of tasks currently being driven.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// QueueLen returns the number of tasks waiting to begin.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Running reports whether the scheduler is currently pulling new tasks.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Add enqueues t. It is rejected if t is already queued or active, or
// if t is in a terminal state.
func (s *Scheduler) Add(t *task.Task) bool {
	s.mu.Lock()
	if s.isTrackedLocked(t) || t.State().Terminal() {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, t)
	running := s.running
	s.mu.Unlock()

	if running {
		s.scheduleDispatch()
	}
	return true
}

func (s *Scheduler) isTrackedLocked(t *task.Task) bool {
	for _, at := range s.active {
		if at == t {
			return true
		}
	}
	for _, qt := range s.queue {
		if qt == t {
			return true
		}
	}
	return false
}

// Start enables dispatch and immediately tries to fill open slots.
func (s *Scheduler) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.scheduleDispatch()
}

// Pause disables dispatch, pauses every active task, and pushes each
// back onto the head of the queue in a reverse-insertion walk so that
// queue priority is restored once dispatch resumes.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	s.running = false
	actives := append([]*task.Task(nil), s.active...)
	s.mu.Unlock()

	for i := len(actives) - 1; i >= 0; i-- {
		t := actives[i]
		t.Pause()
		s.requeueHead(t)
	}
}

func (s *Scheduler) requeueHead(t *task.Task) {
	s.mu.Lock()
	s.queue = append([]*task.Task{t}, s.queue...)
	s.mu.Unlock()
}

// Clear empties the queue and active set and cancels every active task.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	actives := append([]*task.Task(nil), s.active...)
	s.queue = nil
	s.active = nil
	s.running = false
	s.mu.Unlock()

	for _, t := range actives {
		s.detachListeners(t)
		t.Cancel()
	}
}

// scheduleDispatch runs the dispatch routine, guarded so only one
// invocation processes the queue at a time. A call arriving while
// another is in flight sets pending_run, which the in-flight call
// drains before releasing the guard — no triggering event is lost.
func (s *Scheduler) scheduleDispatch() {
	s.mu.Lock()
	if s.processing {
		s.pendingRun = true
		s.mu.Unlock()
		return
	}
	s.processing = true
	s.mu.Unlock()

	s.dispatch()

	for {
		s.mu.Lock()
		if !s.pendingRun {
			s.processing = false
			s.mu.Unlock()
			return
		}
		s.pendingRun = false
		s.mu.Unlock()
		s.dispatch()
	}
}

func (s *Scheduler) dispatch() {
	for {
		s.mu.Lock()
		if !s.running || len(s.active) >= s.concurrency || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue = s.queue[1:]

		if t.State().Terminal() {
			s.mu.Unlock()
			continue
		}

		resuming := t.State() == task.StatePaused
		s.active = append(s.active, t)
		s.mu.Unlock()

		s.attachListeners(t)
		if resuming {
			logging.Logger.Debug().Str("url", t.URL).Msg("scheduler resuming paused task")
			t.Resume()
		} else {
			logging.Logger.Debug().Str("url", t.URL).Msg("scheduler dispatching task")
			t.Start()
		}
	}
}

func (s *Scheduler) attachListeners(t *task.Task) {
	var subs []events.Subscription
	freeSlot := func(any) { s.freeSlot(t) }

	subs = append(subs, t.Events.On(task.EventComplete, freeSlot))
	subs = append(subs, t.Events.On(task.EventError, freeSlot))
	subs = append(subs, t.Events.On(task.EventCancel, freeSlot))
	subs = append(subs, t.Events.On(task.EventPause, freeSlot))

	s.mu.Lock()
	s.subs[t] = subs
	s.mu.Unlock()
}

func (s *Scheduler) detachListeners(t *task.Task) {
	s.mu.Lock()
	subs := s.subs[t]
	delete(s.subs, t)
	s.mu.Unlock()

	for _, sub := range subs {
		t.Events.Off(sub)
	}
}

// freeSlot removes t from the active set and schedules a follow-up
// dispatch. A pause event reaches here too: the task is not re-enqueued
// by this listener, matching the design's explicit resume_job
// requirement (see the job package).
func (s *Scheduler) freeSlot(t *task.Task) {
	s.detachListeners(t)

	s.mu.Lock()
	for i, at := range s.active {
		if at == t {
			s.active = append(s.active[:i:i], s.active[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.scheduleDispatch()
}
