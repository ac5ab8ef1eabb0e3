package curl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrAlreadyRegistered is returned by [Multi.AddHandle] for a handle
// that is still pending under the same coordinator.
var ErrAlreadyRegistered = errors.New("handle already registered")

// Completion is the future returned by [Multi.AddHandle]. It resolves
// exactly once: with the original handle on success, or with an error on
// transfer failure, cancellation, or coordinator close.
type Completion struct {
	done chan struct{}
	easy *Easy
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// resolve fires the future. The coordinator removes the pending record
// from its registry before calling resolve, so each Completion is
// resolved at most once.
func (c *Completion) resolve(easy *Easy, err error) {
	c.easy = easy
	c.err = err
	close(c.done)
}

// Done returns a channel closed when the transfer completes.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err blocks until the transfer completes and returns its error.
func (c *Completion) Err() error {
	<-c.done
	return c.err
}

// Easy blocks until the transfer completes and returns the originating
// handle, nil when the transfer failed or was cancelled.
func (c *Completion) Easy() *Easy {
	<-c.done
	return c.easy
}

// Wait blocks until the transfer completes or ctx ends. A ctx loss does
// not cancel the transfer; pair it with [Multi.RemoveHandle].
func (c *Completion) Wait(ctx context.Context) (*Easy, error) {
	select {
	case <-c.done:
		return c.easy, c.err
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting transfer: %w", ctx.Err())
	}
}

// MultiSetting configures a [Multi] via [NewMulti].
type MultiSetting func(*multiSettings) error

type multiSettings struct {
	logger       *slog.Logger
	drainLimit   int
	fallbackTick time.Duration
}

// WithLogger injects a custom [slog.Logger] into the coordinator.
func WithLogger(logger *slog.Logger) MultiSetting {
	return func(s *multiSettings) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithDrainLimit caps how many completion messages one drive step
// drains. Remaining messages are picked up on the next step; the cap
// bounds per-step latency, not correctness.
func WithDrainLimit(n int) MultiSetting {
	return func(s *multiSettings) error {
		if n <= 0 {
			return errors.New("drain limit must be positive")
		}
		s.drainLimit = n
		return nil
	}
}

// WithFallbackTick sets the drive cadence used when transfers are
// pending but the engine has not requested a timer.
func WithFallbackTick(d time.Duration) MultiSetting {
	return func(s *multiSettings) error {
		if d <= 0 {
			return errors.New("fallback tick must be positive")
		}
		s.fallbackTick = d
		return nil
	}
}

// pendingTransfer is the completion record for one in-flight handle,
// keyed in the registry by the handle's native pointer.
type pendingTransfer struct {
	easy *Easy
	comp *Completion
}

// Multi owns one native multi-transfer engine and drives registered
// easy handles to completion.
//
// All native engine interaction is serialized under one mutex; callers
// may invoke AddHandle, RemoveHandle, SetOpt and Close from any
// goroutine. Completion order follows the native message queue, with no
// ordering guarantee between distinct transfers.
type Multi struct {
	mu          sync.Mutex
	handle       uintptr
	pending      map[uintptr]*pendingTransfer
	lastRunning  int
	drainPending bool
	closed       bool

	// closedFlag and pendingCount duplicate state for paths that must
	// not take mu, such as the timer callback fired from inside a
	// native call.
	closedFlag   atomic.Bool
	pendingCount atomic.Int64

	timerMu       sync.Mutex
	timer         *time.Timer
	timerBridgeID uintptr

	logger       *slog.Logger
	drainLimit   int
	fallbackTick time.Duration
}

// NewMulti allocates a native multi engine and registers its timer
// callback.
func NewMulti(settings ...MultiSetting) (*Multi, error) {
	if err := load(); err != nil {
		return nil, err
	}

	s := multiSettings{
		logger:       slog.Default(),
		drainLimit:   64,
		fallbackTick: 50 * time.Millisecond,
	}
	for _, apply := range settings {
		if err := apply(&s); err != nil {
			return nil, fmt.Errorf("applying multi setting: %w", err)
		}
	}

	handle := lib.multiInit()
	if handle == 0 {
		return nil, fmt.Errorf("multi engine: %w", ErrInit)
	}

	m := &Multi{
		handle:       handle,
		pending:      make(map[uintptr]*pendingTransfer),
		logger:       s.logger,
		drainLimit:   s.drainLimit,
		fallbackTick: s.fallbackTick,
	}

	m.timerBridgeID = bridgeRegister(timerFunc(m.onTimer))
	lib.multiSetoptPtr(handle, int64(MultiOptTimerFunction), timerTrampoline)
	lib.multiSetoptPtr(handle, int64(MultiOptTimerData), m.timerBridgeID)

	return m, nil
}

// onTimer handles a native "re-invoke me after timeoutMS" request. It
// may be invoked from inside a native call the coordinator itself made,
// so it must not take mu and must not call back into the engine; it only
// reschedules the deferred drive step.
//
// Long engine timers (transfer timeouts, retry delays) are capped at
// the fallback tick while transfers are in flight: the perform-based
// drive has no socket readiness reporting, so response bytes would
// otherwise sit unread for the whole requested delay.
func (m *Multi) onTimer(timeoutMS int64) {
	if m.closedFlag.Load() {
		return
	}
	if timeoutMS < 0 {
		m.stopTimer()
		return
	}

	d := time.Duration(timeoutMS) * time.Millisecond
	if m.pendingCount.Load() > 0 && d > m.fallbackTick {
		d = m.fallbackTick
	}
	m.schedule(d)
}

// schedule arms the single outstanding drive timer, replacing any timer
// that has not fired yet.
func (m *Multi) schedule(d time.Duration) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if m.timer != nil {
		m.timer.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		m.timerMu.Lock()
		if m.timer != t {
			// Superseded while this fire was in flight.
			m.timerMu.Unlock()
			return
		}
		m.timer = nil
		m.timerMu.Unlock()
		m.tick()
	})
	m.timer = t
}

func (m *Multi) stopTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Multi) timerArmed() bool {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	return m.timer != nil
}

// tick is the deferred drive step. Scheduled ticks may fire after Close;
// they observe closure before touching the engine.
func (m *Multi) tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.drive()
}

// drive invokes the native non-blocking advance call and drains
// completions when the still-running count drops. The count is advisory
// only; the message queue is the sole ground truth for completion.
// Callers hold mu.
func (m *Multi) drive() {
	var running int32
	code := MultiCode(lib.multiPerform(m.handle, &running))
	if code != MultiOK {
		m.logger.Warn("multi perform failed", "detail", lib.multiStrerror(int32(code)))
	}

	if int(running) < m.lastRunning || m.drainPending {
		m.drainPending = m.drainCompletions()
	}
	m.lastRunning = int(running)

	// Keep driving while transfers remain and the engine left no timer.
	if len(m.pending) > 0 && !m.timerArmed() && !m.closedFlag.Load() {
		m.schedule(m.fallbackTick)
	}
}

// drainCompletions reads completion messages until the queue is empty or
// the per-step cap is hit, reporting whether messages may remain.
// Registry removal strictly precedes resolution, so a re-entrant drive
// step or a racing cancel can never double-process an identity.
// Messages for identities no longer in the registry are discarded.
// Callers hold mu.
func (m *Multi) drainCompletions() (more bool) {
	for i := 0; i < m.drainLimit; i++ {
		var remaining int32
		p := lib.multiInfoRead(m.handle, &remaining)
		if p == 0 {
			return false
		}

		kind, easyRaw, code := decodeMsgAt(p)
		if kind != msgDone {
			continue
		}

		rec, ok := m.pending[easyRaw]
		if !ok {
			continue
		}
		delete(m.pending, easyRaw)
		m.pendingCount.Store(int64(len(m.pending)))
		lib.multiRemove(m.handle, easyRaw)

		if code == CodeOK {
			rec.comp.resolve(rec.easy, nil)
			continue
		}
		rec.comp.resolve(nil, &TransferError{Code: code, Detail: lib.easyStrerror(int32(code))})
	}
	return true
}

// AddHandle attaches an easy handle to the engine and returns its
// completion future. The future resolves or rejects exactly once,
// driven solely by the completion-message queue; timeout policy belongs
// to the caller. The first drive step is deferred, never run inside
// AddHandle.
func (m *Multi) AddHandle(e *Easy) (*Completion, error) {
	if e == nil || e.raw == 0 {
		return nil, fmt.Errorf("add handle: easy session %w", ErrClosed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("add handle: %w", ErrClosed)
	}
	if _, exists := m.pending[e.raw]; exists {
		return nil, fmt.Errorf("add handle %#x: %w", e.raw, ErrAlreadyRegistered)
	}

	if code := MultiCode(lib.multiAdd(m.handle, e.raw)); code != MultiOK {
		return nil, &MultiError{Op: "add handle", Code: code, Detail: lib.multiStrerror(int32(code))}
	}

	comp := newCompletion()
	m.pending[e.raw] = &pendingTransfer{easy: e, comp: comp}
	m.pendingCount.Store(int64(len(m.pending)))
	m.lastRunning = len(m.pending)
	m.schedule(0)

	return comp, nil
}

// RemoveHandle detaches a handle from the engine and force-rejects its
// pending record with [ErrCancelled]. It is idempotent and best-effort:
// if the completion message for this handle was already drained, or is
// drained concurrently, whichever path removed the record first wins and
// the other is a no-op.
func (m *Multi) RemoveHandle(e *Easy) {
	if e == nil || e.raw == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	rec, ok := m.pending[e.raw]
	if !ok {
		return
	}
	delete(m.pending, e.raw)
	m.pendingCount.Store(int64(len(m.pending)))
	lib.multiRemove(m.handle, e.raw)
	rec.comp.resolve(nil, fmt.Errorf("transfer %#x: %w", e.raw, ErrCancelled))
}

// SetOpt sets an engine-wide option, dispatching on the value's type.
func (m *Multi) SetOpt(opt MultiOption, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("multi setopt: %w", ErrClosed)
	}

	var code MultiCode
	switch v := value.(type) {
	case int:
		code = MultiCode(lib.multiSetoptLong(m.handle, int64(opt), int64(v)))
	case int64:
		code = MultiCode(lib.multiSetoptLong(m.handle, int64(opt), v))
	case bool:
		var n int64
		if v {
			n = 1
		}
		code = MultiCode(lib.multiSetoptLong(m.handle, int64(opt), n))
	case uintptr:
		code = MultiCode(lib.multiSetoptPtr(m.handle, int64(opt), v))
	default:
		return &MultiError{Op: "setopt " + opt.String(), Code: MultiUnknownOption,
			Detail: fmt.Sprintf("unsupported value type %T", value)}
	}

	if code != MultiOK {
		return &MultiError{Op: "setopt " + opt.String(), Code: code, Detail: lib.multiStrerror(int32(code))}
	}
	return nil
}

// Pending reports the number of registered, unresolved transfers.
func (m *Multi) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close cancels the outstanding timer, force-rejects every pending
// record with [ErrClosed] in arbitrary order, releases the timer
// callback registration, and frees the native engine. It is idempotent;
// any scheduled drive step still in flight becomes a no-op.
func (m *Multi) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.closedFlag.Store(true)
	m.stopTimer()

	for key, rec := range m.pending {
		delete(m.pending, key)
		lib.multiRemove(m.handle, key)
		rec.comp.resolve(nil, fmt.Errorf("transfer %#x: %w", key, ErrClosed))
	}
	m.pendingCount.Store(0)
	m.lastRunning = 0

	bridgeRelease(m.timerBridgeID)

	code := MultiCode(lib.multiCleanup(m.handle))
	m.handle = 0
	if code != MultiOK {
		return &MultiError{Op: "cleanup", Code: code, Detail: lib.multiStrerror(int32(code))}
	}
	return nil
}
