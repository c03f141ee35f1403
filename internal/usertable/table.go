package usertable

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"user-table/pkg/logger"
)

// ErrClosed is returned for work requested from a table after Close.
var ErrClosed = errors.New("user table is closed")

// ErrStaleForm rejects a field binding made against a form that has since been
// submitted or refilled by edit-mode entry.
var ErrStaleForm = errors.New("form revision is stale")

// ChangeFunc is called with the new snapshot after every state change, while the table
// still holds its lock, so calls arrive in the order the changes happened.
type ChangeFunc func(ctx context.Context, s State)

// Table is one live instance of the user table. It owns the state between view events
// and applies API outcomes to it. Network calls run without holding the lock, so
// overlapping calls reconcile in the order they finish.
type Table struct {
	svc *Service
	log *zap.Logger

	mu       sync.Mutex
	state    State
	closed   bool
	onChange ChangeFunc

	// life is canceled by Close and bounds every call the table makes.
	life   context.Context
	cancel context.CancelFunc
}

// NewTable creates a table starting from initial. A restored state with Mounted set
// will not fetch again on Init.
func NewTable(svc *Service, initial State, log *zap.Logger) *Table {
	if initial.Users == nil {
		initial.Users = NewState().Users
	}
	life, cancel := context.WithCancel(context.Background())
	return &Table{
		svc:    svc,
		log:    log.Named("table"),
		state:  initial,
		life:   life,
		cancel: cancel,
	}
}

// OnChange registers fn to observe state changes. It replaces any earlier function.
func (t *Table) OnChange(fn ChangeFunc) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Init mounts the table: the first call fetches the user list, later calls do nothing.
func (t *Table) Init(ctx context.Context) {
	t.mu.Lock()
	if t.closed || t.state.Mounted {
		t.mu.Unlock()
		return
	}
	t.setLocked(ctx, func(s State) State {
		s.Mounted = true
		return s
	})
	t.mu.Unlock()

	callCtx, done := t.bind(ctx)
	defer done()
	t.apply(ctx, t.svc.Fetch(callCtx))
}

// SetField binds one form input.
func (t *Table) SetField(ctx context.Context, name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.setFieldLocked(ctx, name, value)
}

// SetFieldAt binds one form input typed into the form at revision rev. Bindings for
// an older revision are rejected with ErrStaleForm.
func (t *Table) SetFieldAt(ctx context.Context, rev uint64, name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed && rev != t.state.FormRev {
		return ErrStaleForm
	}
	return t.setFieldLocked(ctx, name, value)
}

func (t *Table) setFieldLocked(ctx context.Context, name, value string) error {
	if t.closed {
		return ErrClosed
	}
	next, err := t.state.WithField(name, value)
	if err != nil {
		return err
	}
	t.setLocked(ctx, func(State) State { return next })
	return nil
}

// Edit enters edit mode for the user with the given id. It returns false when no row
// has that id or the table is closed.
func (t *Table) Edit(ctx context.Context, id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	next, ok := t.state.Edit(id)
	if ok {
		t.setLocked(ctx, func(State) State { return next })
	}
	return ok
}

// Submit sends the current form as a create or an update and applies the result.
// A closed table sends nothing and reports ErrClosed.
func (t *Table) Submit(ctx context.Context) Outcome {
	st, open := t.current()
	if !open {
		if st.Editing != nil {
			return Outcome{Op: OpUpdate, TargetID: st.Editing.ID, Err: ErrClosed}
		}
		return Outcome{Op: OpCreate, Err: ErrClosed}
	}

	callCtx, done := t.bind(ctx)
	defer done()

	o := t.svc.Submit(callCtx, st)
	t.apply(ctx, o)
	return o
}

// Delete removes the user with the given id and applies the result.
// A closed table sends nothing and reports ErrClosed.
func (t *Table) Delete(ctx context.Context, id int64) Outcome {
	if _, open := t.current(); !open {
		return Outcome{Op: OpDelete, TargetID: id, Err: ErrClosed}
	}

	callCtx, done := t.bind(ctx)
	defer done()

	o := t.svc.Delete(callCtx, id)
	t.apply(ctx, o)
	return o
}

func (t *Table) current() (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, !t.closed
}

// Snapshot returns the current state.
func (t *Table) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Close tears the table down. In-flight calls are canceled and their outcomes dropped.
func (t *Table) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.cancel()
}

// bind derives a call context that ends with either ctx or the table's lifetime.
func (t *Table) bind(ctx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	if t.life.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(t.life, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (t *Table) apply(ctx context.Context, o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		logger.WithContext(ctx, t.log).Debug("dropping outcome of closed table", zap.Stringer("op", o.Op))
		return
	}
	if o.Err != nil {
		return
	}
	t.setLocked(ctx, func(s State) State { return s.Apply(o) })
}

func (t *Table) setLocked(ctx context.Context, fn func(State) State) {
	if t.closed {
		return
	}
	t.state = fn(t.state)
	if t.onChange != nil {
		t.onChange(ctx, t.state)
	}
}
