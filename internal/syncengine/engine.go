package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thruflo/clipsync/internal/clipboard"
	"github.com/thruflo/clipsync/internal/logging"
	"github.com/thruflo/clipsync/internal/syncerr"
)

// Default timing values.
const (
	DefaultInterval   = 500 * time.Millisecond
	DefaultQuiescence = 1000 * time.Millisecond
)

// ErrAlreadyStarted is returned by a second StartMonitoring call.
var ErrAlreadyStarted = errors.New("monitoring already started")

// Remote is the remote store as seen by the engine.
type Remote interface {
	// Probe checks reachability and updates the connection state.
	Probe(ctx context.Context) (bool, error)

	// Fetch returns the current remote value.
	Fetch(ctx context.Context) (string, error)

	// Push replaces the remote value.
	Push(ctx context.Context, text string) error

	// Connected reports the last known connection state.
	Connected() bool
}

// Clock supplies the current time for quiescence checks.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options holds the dependencies and timing of an Engine.
type Options struct {
	Remote Remote
	Local  clipboard.Clipboard

	// Logger defaults to a discarding logger.
	Logger *logging.Logger

	// Clock defaults to the wall clock.
	Clock Clock

	// Interval is the tick period. Defaults to DefaultInterval.
	Interval time.Duration

	// Quiescence is the minimum time between accepted transitions.
	// Defaults to DefaultQuiescence.
	Quiescence time.Duration
}

// syncState is the accepted value and when it was accepted. It is only ever
// read and replaced as a whole, under Engine.mu.
type syncState struct {
	content string
	updated time.Time
}

// Engine reconciles a local clipboard with a remote store.
type Engine struct {
	remote     Remote
	local      clipboard.Clipboard
	logger     *logging.Logger
	clock      Clock
	interval   time.Duration
	quiescence time.Duration

	// mu guards state
	mu    sync.Mutex
	state syncState

	stats statsRecorder

	// propagation tracks background pushes after local accepts
	propagation sync.WaitGroup

	// runMu guards started and cancel
	runMu   sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an Engine. Remote and Local are required.
func New(opts Options) (*Engine, error) {
	if opts.Remote == nil {
		return nil, errors.New("remote store is required")
	}
	if opts.Local == nil {
		return nil, errors.New("local clipboard is required")
	}
	if opts.Interval < 0 || opts.Quiescence < 0 {
		return nil, errors.New("interval and quiescence must not be negative")
	}

	e := &Engine{
		remote:     opts.Remote,
		local:      opts.Local,
		logger:     opts.Logger,
		clock:      opts.Clock,
		interval:   opts.Interval,
		quiescence: opts.Quiescence,
		done:       make(chan struct{}),
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}
	if e.interval == 0 {
		e.interval = DefaultInterval
	}
	if e.quiescence == 0 {
		e.quiescence = DefaultQuiescence
	}
	return e, nil
}

// LastContent returns the last accepted value.
func (e *Engine) LastContent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.content
}

// LastUpdate returns when the last value was accepted. It is the zero time
// until the first accept.
func (e *Engine) LastUpdate() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.updated
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// accept unconditionally makes text the accepted value.
func (e *Engine) accept(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = syncState{content: text, updated: e.clock.Now()}
}

// acceptIfQuiet makes text the accepted value if it differs from the current
// one and more than the quiescence window has passed since the last accept.
// The comparison and the update happen under one lock. It returns the accept
// time and whether text was accepted.
func (e *Engine) acceptIfQuiet(text string) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if text == e.state.content {
		return time.Time{}, false
	}
	now := e.clock.Now()
	if now.Sub(e.state.updated) <= e.quiescence {
		return time.Time{}, false
	}
	e.state = syncState{content: text, updated: now}
	return now, true
}

// StartMonitoring adopts the remote value once, then runs the reconciliation
// loop in the background until ctx is cancelled or Stop is called. It
// returns without waiting for the loop. An empty remote leaves the local
// clipboard alone. A failed initial sync is logged and does not prevent the
// loop from starting.
func (e *Engine) StartMonitoring(ctx context.Context) error {
	e.runMu.Lock()
	if e.started {
		e.runMu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.runMu.Unlock()

	if err := e.initialSync(ctx); err != nil {
		e.logger.Warn("initial sync from remote failed", "error", err)
	}

	e.logger.Info("monitoring started", "interval", e.interval, "quiescence", e.quiescence)
	go e.run(loopCtx)
	return nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("monitoring stopped")
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Stop cancels the loop started by StartMonitoring. It does not wait for
// the loop to exit; use Done for that.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Done returns a channel closed once the monitoring loop has exited. It is
// never closed if StartMonitoring was not called.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until background pushes dispatched by the loop have finished.
func (e *Engine) Wait() {
	e.propagation.Wait()
}

// Tick runs one reconciliation cycle.
func (e *Engine) Tick(ctx context.Context) {
	e.stats.tick()

	if !e.remote.Connected() {
		if ok, err := e.remote.Probe(ctx); !ok {
			e.stats.offline()
			e.logger.Debug("remote unreachable, skipping tick", "error", err)
			return
		}
		e.logger.Info("remote reachable again")
	}

	e.reconcileLocal(ctx)
	e.reconcileRemote(ctx)
}

func (e *Engine) reconcileLocal(ctx context.Context) {
	text, err := e.local.Read(ctx)
	if err != nil {
		e.stats.localReadFailed()
		e.logger.Debug("local read failed", "error", err)
		return
	}

	at, ok := e.acceptIfQuiet(text)
	if !ok {
		return
	}
	e.stats.localAccepted(at)
	e.logger.Info("accepted local change", "bytes", len(text))
	e.propagate(ctx, text)
}

// propagate pushes an accepted local value without blocking the tick. The
// push outlives cancellation of ctx so a shutdown does not drop it.
func (e *Engine) propagate(ctx context.Context, text string) {
	pushCtx := context.WithoutCancel(ctx)

	e.propagation.Add(1)
	go func() {
		defer e.propagation.Done()
		if err := e.remote.Push(pushCtx, text); err != nil {
			e.stats.pushFailed()
			e.logger.Warn("failed to push local change", "error", err, "kind", string(syncerr.KindOf(err)))
		}
	}()
}

func (e *Engine) reconcileRemote(ctx context.Context) {
	text, err := e.remote.Fetch(ctx)
	if err != nil {
		if n := e.stats.fetchFailed(); n == 1 {
			e.logger.Warn("failed to fetch remote value", "error", err, "kind", string(syncerr.KindOf(err)))
		} else {
			e.logger.Debug("fetch still failing", "error", err, "consecutive", n)
		}
		return
	}
	if n := e.stats.fetchSucceeded(); n > 0 {
		e.logger.Info("fetch recovered", "failed_ticks", n)
	}

	if text == "" {
		return
	}
	at, ok := e.acceptIfQuiet(text)
	if !ok {
		return
	}
	e.stats.remoteAccepted(at)
	e.logger.Info("accepted remote change", "bytes", len(text))

	if err := e.local.Write(ctx, text); err != nil {
		e.stats.localWriteFailed()
		e.logger.Warn("failed to update local clipboard", "error", err, "kind", string(syncerr.KindOf(err)))
	}
}

// SyncToRemote reads the local clipboard and, if the read succeeds, accepts
// the value unconditionally and pushes it.
func (e *Engine) SyncToRemote(ctx context.Context) error {
	text, err := e.local.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read local clipboard: %w", err)
	}

	e.accept(text)
	e.stats.manualPush()

	if err := e.remote.Push(ctx, text); err != nil {
		return fmt.Errorf("failed to push to remote: %w", err)
	}
	return nil
}

// SyncFromRemote fetches the remote value and, if the fetch succeeds,
// accepts it unconditionally and writes it to the local clipboard.
func (e *Engine) SyncFromRemote(ctx context.Context) error {
	text, err := e.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch from remote: %w", err)
	}
	return e.adopt(ctx, text)
}

// initialSync is SyncFromRemote except that an empty remote is skipped, so
// the first tick pushes whatever the user already had copied.
func (e *Engine) initialSync(ctx context.Context) error {
	text, err := e.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch from remote: %w", err)
	}
	if text == "" {
		e.logger.Debug("remote is empty, keeping local clipboard")
		return nil
	}
	return e.adopt(ctx, text)
}

func (e *Engine) adopt(ctx context.Context, text string) error {
	e.accept(text)
	e.stats.manualPull()

	if err := e.local.Write(ctx, text); err != nil {
		return fmt.Errorf("failed to update local clipboard: %w", err)
	}
	return nil
}
