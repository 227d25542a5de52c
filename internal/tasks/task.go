// Package tasks runs provisioning work asynchronously and exposes its
// progress for polling. A task moves through a fixed set of states, never
// reports less progress than it already has, and keeps its final payload
// unchanged until it is evicted.
package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the coarse phase of a task.
type State string

const (
	Pending             State = "PENDING"
	Uploading           State = "UPLOADING"
	CreatingEnvironment State = "CREATING_ENVIRONMENT"
	Success             State = "SUCCESS"
	Failed              State = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == Success || s == Failed
}

// Status texts written into snapshots.
const (
	StatusPending   = "PENDING"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "UPLOAD FAILED"
	StatusCancelled = "CANCELLED"
)

// Snapshot is the polled view of a task. Language and BuildStart are only
// set while the task runs; Info only once it has ended.
type Snapshot struct {
	State      State  `json:"state"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Status     string `json:"status"`
	Language   string `json:"language,omitempty"`
	BuildStart string `json:"build_start_timestamp,omitempty"`
	Info       any    `json:"info,omitempty"`
}

// Func is the body of a task. The returned value becomes the Info of the
// SUCCESS snapshot.
type Func func(ctx context.Context, t *Task) (any, error)

// Task is one unit of provisioning work. Its progress setters are safe for
// concurrent use.
type Task struct {
	id       uuid.UUID
	language string
	total    int
	fn       Func

	mu         sync.Mutex
	snap       Snapshot
	stamp      string
	cancel     context.CancelFunc
	cancelled  bool
	finishedAt time.Time
	firstPoll  time.Time
	polls      int
}

func newTask(language string, total int, fn Func) *Task {
	return &Task{
		id:       uuid.New(),
		language: language,
		total:    total,
		fn:       fn,
		snap: Snapshot{
			State:   Pending,
			Current: 0,
			Total:   1,
			Status:  StatusPending,
		},
	}
}

// ID returns the task identifier.
func (t *Task) ID() uuid.UUID {
	return t.id
}

// Stamp returns the key assigned when the task started. It names scratch
// files that belong to the task.
func (t *Task) Stamp() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stamp
}

// Total returns the number of progress steps.
func (t *Task) Total() int {
	return t.total
}

// Advance moves the task to state at step current. Regressions of current
// are ignored and terminal tasks are left untouched.
func (t *Task) Advance(state State, current int, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() || state.Terminal() {
		return
	}
	t.snap.State = state
	t.snap.Current = max(t.snap.Current, min(current, t.total))
	t.snap.Status = status
}

// Relay applies progress reported by a build subprocess. It never moves
// past the last step before completion.
func (t *Task) Relay(current int, status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() {
		return
	}
	t.snap.Current = max(t.snap.Current, min(current, t.total-1))
	if status != "" {
		t.snap.Status = status
	}
}

// Snapshot returns a copy of the current view without counting a poll.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

func (t *Task) start(ctx context.Context, stamp string) (context.Context, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() {
		return nil, false
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.stamp = stamp
	t.snap = Snapshot{
		State:      Uploading,
		Current:    0,
		Total:      t.total,
		Status:     "creating environment",
		Language:   t.language,
		BuildStart: stamp,
	}
	return ctx, true
}

func (t *Task) finish(info any, err error, now time.Time) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() {
		return t.snap.State
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.finishedAt = now

	if err == nil {
		t.snap = Snapshot{
			State:   Success,
			Current: t.total,
			Total:   t.total,
			Status:  StatusSuccess,
			Info:    info,
		}
		return Success
	}

	status := StatusFailed
	if t.cancelled || errors.Is(err, ErrCancelled) {
		status = StatusCancelled
	}
	t.snap = Snapshot{
		State:   Failed,
		Current: t.snap.Current,
		Total:   t.snap.Total,
		Status:  status,
		Info:    map[string]string{"error": err.Error()},
	}
	return Failed
}

// requestCancel marks the task cancelled. A task that has not started yet
// is failed immediately; a running task has its context cancelled and
// fails once its body returns.
func (t *Task) requestCancel(now time.Time) error {
	t.mu.Lock()
	if t.snap.State.Terminal() {
		t.mu.Unlock()
		return ErrTaskFinished
	}
	t.cancelled = true
	cancel := t.cancel
	pending := t.snap.State == Pending
	t.mu.Unlock()

	if pending {
		t.finish(nil, ErrCancelled, now)
		return nil
	}
	cancel()
	return nil
}

// poll returns the snapshot and counts the poll if the task has ended.
func (t *Task) poll(now time.Time) (Snapshot, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snap.State.Terminal() {
		if t.polls == 0 {
			t.firstPoll = now
		}
		t.polls++
	}
	return t.snap, t.polls
}

// expired reports whether a finished task has outlived its retention.
func (t *Task) expired(now time.Time, ttl, abandon time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.snap.State.Terminal() {
		return false
	}
	if t.polls > 0 {
		return now.Sub(t.firstPoll) > ttl
	}
	return now.Sub(t.finishedAt) > abandon
}
