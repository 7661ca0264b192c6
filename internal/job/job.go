// Package job implements the Download Job: a fixed set of tasks whose
// progress and completion are aggregated and re-emitted as a single
// job-level stream, so a caller need not poll every task individually.
package job

import (
	"fmt"
	"sync"

	"github.com/resumeload/resumeload/internal/errs"
	"github.com/resumeload/resumeload/internal/events"
	"github.com/resumeload/resumeload/internal/scheduler"
	"github.com/resumeload/resumeload/internal/store"
	"github.com/resumeload/resumeload/internal/task"
)

// Event names a Job emits through its Emitter.
const (
	EventProgress     = "progress"
	EventTaskProgress = "taskProgress"
	EventTaskComplete = "taskComplete"
	EventTaskError    = "taskError"
	EventComplete     = "complete"
)

// ProgressPayload is the payload of a job-level progress event: the sum
// of every task's loaded/total.
type ProgressPayload struct {
	JobLoaded int64
	JobTotal  int64
	Percent   float64
}

// TaskProgressPayload echoes one task's own progress event up through
// the job.
type TaskProgressPayload struct {
	Task   *task.Task
	Loaded int64
	Total  int64
}

// TaskCompletePayload is the payload of a taskComplete event.
type TaskCompletePayload struct {
	Task *task.Task
}

// TaskErrorPayload is the payload of a taskError event.
type TaskErrorPayload struct {
	Task *task.Task
	Kind errs.Kind
}

type taskProgress struct {
	loaded int64
	total  int64
}

// Job composes a fixed set of tasks built from parallel urls and
// filenames arrays. It never calls start/pause/resume/cancel on its
// tasks directly; those are driven externally via the Scheduler or the
// public surface.
type Job struct {
	mu sync.Mutex

	Tasks  []*task.Task
	Events *events.Emitter

	progress  map[*task.Task]*taskProgress
	completed int
	errored   int
}

// New constructs a Job from parallel urls and filenames, both of which
// must have the same length. Every task writes its assembled artifact
// to outputDir and shares st as its Chunk Store.
func New(urls, filenames []string, outputDir string, st *store.Store) (*Job, error) {
	if len(urls) != len(filenames) {
		return nil, fmt.Errorf("job: urls and filenames must have equal length (%d != %d)", len(urls), len(filenames))
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("job: at least one task is required")
	}

	j := &Job{
		Events:   events.New(),
		progress: make(map[*task.Task]*taskProgress),
	}
	for i, u := range urls {
		t := task.New(u, filenames[i], outputDir, st)
		j.Tasks = append(j.Tasks, t)
		j.progress[t] = &taskProgress{}
		j.attach(t)
	}
	return j, nil
}

func (j *Job) attach(t *task.Task) {
	t.Events.On(task.EventProgress, func(payload any) {
		j.onProgress(t, payload.(task.ProgressPayload))
	})
	t.Events.On(task.EventComplete, func(payload any) {
		j.onComplete(t)
	})
	t.Events.On(task.EventError, func(payload any) {
		j.onError(t, payload.(task.ErrorPayload))
	})
}

func (j *Job) onProgress(t *task.Task, p task.ProgressPayload) {
	j.mu.Lock()
	j.progress[t].loaded = p.Loaded
	j.progress[t].total = p.Total
	var jobLoaded, jobTotal int64
	for _, e := range j.progress {
		jobLoaded += e.loaded
		jobTotal += e.total
	}
	j.mu.Unlock()

	j.Events.Emit(EventTaskProgress, TaskProgressPayload{Task: t, Loaded: p.Loaded, Total: p.Total})

	var percent float64
	if jobTotal > 0 {
		percent = 100 * float64(jobLoaded) / float64(jobTotal)
	}
	j.Events.Emit(EventProgress, ProgressPayload{JobLoaded: jobLoaded, JobTotal: jobTotal, Percent: percent})
}

func (j *Job) onComplete(t *task.Task) {
	j.mu.Lock()
	j.completed++
	finished := j.finishedLocked()
	j.mu.Unlock()

	j.Events.Emit(EventTaskComplete, TaskCompletePayload{Task: t})
	if finished {
		j.Events.Emit(EventComplete, nil)
	}
}

func (j *Job) onError(t *task.Task, p task.ErrorPayload) {
	j.mu.Lock()
	j.errored++
	finished := j.finishedLocked()
	j.mu.Unlock()

	j.Events.Emit(EventTaskError, TaskErrorPayload{Task: t, Kind: p.Kind})
	if finished {
		j.Events.Emit(EventComplete, nil)
	}
}

func (j *Job) finishedLocked() bool {
	return j.completed+j.errored == len(j.Tasks)
}

// Completed returns the number of tasks that have reached completed.
func (j *Job) Completed() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.completed
}

// Errored returns the number of error events the job's tasks have
// emitted. The count never decreases: a task that errs and later
// completes after a retry stays counted here.
func (j *Job) Errored() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.errored
}

// Finished reports whether every task has reached a counted terminal
// outcome (completed or error).
func (j *Job) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishedLocked()
}

// ResumeJob re-adds every currently paused task of j back onto sch.
// A scheduler-pause-freed slot never auto-resumes a task; this is the
// explicit re-entry point the design calls for.
func (j *Job) ResumeJob(sch *scheduler.Scheduler) {
	for _, t := range j.Tasks {
		if t.State() == task.StatePaused {
			sch.Add(t)
		}
	}
}
