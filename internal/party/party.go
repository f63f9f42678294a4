// Package party coordinates one birthday party: candles, celebration latch,
// blow detection, and the side effects that follow.
package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/cakemic/internal/blow"
	"github.com/rbright/cakemic/internal/bouquet"
	"github.com/rbright/cakemic/internal/candles"
	"github.com/rbright/cakemic/internal/celebrate"
	"github.com/rbright/cakemic/internal/config"
	"github.com/rbright/cakemic/internal/fsm"
	"github.com/rbright/cakemic/internal/indicator"
	"github.com/rbright/cakemic/internal/melody"
)

// ErrInvalidTotal reports a candle count outside the supported range.
var ErrInvalidTotal = errors.New("candle total out of range")

const teardownTimeout = 800 * time.Millisecond

// Options wires a Controller. Zero-valued collaborators fall back to no-ops.
type Options struct {
	Logger    *slog.Logger
	Config    config.Config
	Open      blow.OpenFunc
	Melody    melody.Player
	Indicator indicator.Controller
}

// Snapshot is a read-only view of the party for rendering surfaces.
type Snapshot struct {
	PartyID         string
	State           fsm.State
	Variant         candles.Variant
	Total           int
	Extinguished    int
	Lit             []bool
	Complete        bool
	Celebrating     bool
	Message         string
	Mic             bool
	Listening       bool
	MicErr          string
	Flowers         []bouquet.Flower
	BouquetComplete bool
}

// Controller serializes every party mutation behind one mutex and evaluates
// the celebration trigger in the same critical section.
type Controller struct {
	logger    *slog.Logger
	melody    melody.Player
	indicator indicator.Controller
	monitor   *blow.Monitor
	trigger   *celebrate.Trigger
	bouquet   *bouquet.Bouquet

	mu          sync.Mutex
	ctx         context.Context
	tracker     candles.Tracker
	variant     candles.Variant
	mode        string
	message     string
	mic         bool
	celebrating bool
	partyID     string

	syncMu sync.Mutex
	resync sync.WaitGroup

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}
}

// effects are the side effects of one mutation, applied after unlocking.
type effects struct {
	fired   bool
	reset   bool
	hide    bool
	message string
}

// New builds a controller with every candle lit.
func New(opts Options) (*Controller, error) {
	cfg := opts.Config
	variant, err := candles.ParseVariant(cfg.Party.Variant)
	if err != nil {
		return nil, err
	}
	tracker, err := candles.New(variant, cfg.Party.Candles)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		logger:    opts.Logger,
		melody:    opts.Melody,
		indicator: opts.Indicator,
		trigger:   celebrate.NewTrigger(),
		bouquet:   bouquet.New(),
		ctx:       context.Background(),
		tracker:   tracker,
		variant:   variant,
		mode:      cfg.Detector.Mode,
		message:   cfg.Party.Message,
		mic:       cfg.Party.Mic,
		partyID:   uuid.NewString(),
		subs:      make(map[chan struct{}]struct{}),
	}
	if c.melody == nil {
		c.melody = melody.Nop{}
	}
	if c.indicator == nil {
		c.indicator = indicator.Nop{}
	}

	open := opts.Open
	if open == nil {
		open = func() blow.Sampler { return unavailableSampler{} }
	}
	detector := blow.NewDetector(blow.Tuning{
		Threshold: cfg.Detector.Threshold,
		Cooldown:  cfg.Detector.Cooldown(),
	})
	c.monitor = blow.NewMonitor(opts.Logger, open, detector, c.onBlow, c.onStatus)
	return c, nil
}

// Run enables detection when configured and blocks until ctx is done. It then
// turns the microphone off, stops the melody, and clears the indicator.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	c.syncMonitor()
	<-ctx.Done()

	c.syncMu.Lock()
	c.monitor.Disable()
	c.syncMu.Unlock()
	c.resync.Wait()
	c.melody.Stop()

	cleanupCtx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	c.indicator.Hide(cleanupCtx)
	return nil
}

// Extinguish puts out candle i.
func (c *Controller) Extinguish(i int) (bool, error) {
	var changed bool
	err := c.mutate(func() (effects, error) {
		var err error
		changed, err = c.tracker.ExtinguishAt(i)
		if err != nil {
			return effects{}, err
		}
		return c.evaluateLocked(), nil
	})
	return changed, err
}

// Blow applies one blow according to the detector mode.
func (c *Controller) Blow() bool {
	var changed bool
	_ = c.mutate(func() (effects, error) {
		changed = c.blowLocked()
		return c.evaluateLocked(), nil
	})
	return changed
}

// Relight lights every candle and re-arms the celebration.
func (c *Controller) Relight() {
	_ = c.mutate(func() (effects, error) {
		c.tracker.Relight()
		return c.rearmLocked(), nil
	})
}

// SetTotal rebuilds the cake with n lit candles.
func (c *Controller) SetTotal(n int) error {
	if n < config.MinCandles || n > config.MaxCandles {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidTotal, n, config.MinCandles, config.MaxCandles)
	}
	return c.mutate(func() (effects, error) {
		tracker, err := candles.New(c.variant, n)
		if err != nil {
			return effects{}, err
		}
		c.tracker = tracker
		return c.rearmLocked(), nil
	})
}

// SetMessage replaces the celebration message.
func (c *Controller) SetMessage(message string) {
	_ = c.mutate(func() (effects, error) {
		c.message = message
		return effects{}, nil
	})
}

// SetMic turns blow detection on or off.
func (c *Controller) SetMic(on bool) {
	_ = c.mutate(func() (effects, error) {
		c.mic = on
		return effects{}, nil
	})
}

// Dismiss closes the celebration overlay.
func (c *Controller) Dismiss() {
	_ = c.mutate(func() (effects, error) {
		if !c.celebrating {
			return effects{}, nil
		}
		c.celebrating = false
		return effects{hide: true}, nil
	})
}

// AddFlower reveals the next bouquet flower.
func (c *Controller) AddFlower() (bouquet.Flower, bool) {
	flower, ok := c.bouquet.Add()
	if ok {
		c.notify()
	}
	return flower, ok
}

// ResetBouquet hides every flower.
func (c *Controller) ResetBouquet() {
	c.bouquet.Reset()
	c.notify()
}

// Retune applies a reloaded config to the live detector and blow mode.
func (c *Controller) Retune(loaded config.Loaded) {
	cfg := loaded.Config.Detector
	c.monitor.Detector().SetTuning(blow.Tuning{Threshold: cfg.Threshold, Cooldown: cfg.Cooldown()})

	c.mu.Lock()
	c.mode = cfg.Mode
	c.mu.Unlock()

	c.log(slog.LevelInfo, "detector retuned", "threshold", cfg.Threshold, "cooldown_ms", cfg.CooldownMS, "mode", cfg.Mode)
	c.notify()
}

// Snapshot returns the current party view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		PartyID:      c.partyID,
		State:        c.trigger.State(),
		Variant:      c.variant,
		Total:        c.tracker.Total(),
		Extinguished: c.tracker.Extinguished(),
		Complete:     c.tracker.IsComplete(),
		Celebrating:  c.celebrating,
		Message:      c.message,
		Mic:          c.mic,
	}
	snap.Lit = make([]bool, snap.Total)
	for i := range snap.Lit {
		snap.Lit[i] = c.tracker.IsLit(i)
	}
	c.mu.Unlock()

	snap.Listening = c.monitor.Listening()
	if err := c.monitor.Err(); err != nil {
		snap.MicErr = err.Error()
	}
	snap.Flowers = c.bouquet.Revealed()
	snap.BouquetComplete = c.bouquet.Complete()
	return snap
}

// Subscribe returns a channel that receives a token after state changes.
// Notifications coalesce; a slow reader sees at most one pending token.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subsMu.Lock()
	c.subs[ch] = struct{}{}
	c.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, ch)
			c.subsMu.Unlock()
		})
	}
}

func (c *Controller) notify() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// mutate runs fn under the party lock, then applies effects, resyncs the
// monitor, and notifies subscribers.
func (c *Controller) mutate(fn func() (effects, error)) error {
	c.mu.Lock()
	fx, err := fn()
	ctx := c.ctx
	c.mu.Unlock()
	if err != nil {
		return err
	}

	c.apply(ctx, fx)
	c.syncMonitor()
	c.notify()
	return nil
}

func (c *Controller) apply(ctx context.Context, fx effects) {
	switch {
	case fx.fired:
		c.log(slog.LevelInfo, "all candles out; celebrating")
		c.melody.Play(ctx)
		c.indicator.ShowCelebration(ctx, fx.message)
	case fx.reset:
		c.melody.Stop()
		c.indicator.Hide(ctx)
	case fx.hide:
		c.indicator.Hide(ctx)
	}
}

// syncMonitor runs detection iff the mic is on and candles remain lit. It is
// never called from the monitor's own callbacks.
func (c *Controller) syncMonitor() {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	want := c.mic && !c.tracker.IsComplete()
	ctx := c.ctx
	c.mu.Unlock()

	if want {
		if ctx.Err() == nil {
			c.monitor.Enable(ctx)
		}
		return
	}
	c.monitor.Disable()
}

func (c *Controller) blowLocked() bool {
	if c.mode == config.BlowModeOne {
		return c.tracker.ExtinguishNext()
	}
	return c.tracker.ExtinguishAll()
}

func (c *Controller) evaluateLocked() effects {
	if !c.trigger.Evaluate(c.tracker.IsComplete()) {
		return effects{}
	}
	c.celebrating = true
	return effects{fired: true, message: c.message}
}

func (c *Controller) rearmLocked() effects {
	c.trigger.Relight()
	c.celebrating = false
	c.partyID = uuid.NewString()
	return effects{reset: true}
}

// onBlow runs on the monitor loop. Returning false lets the loop release the
// device itself, so it must not call Disable.
func (c *Controller) onBlow(event blow.Event) bool {
	c.mu.Lock()
	changed := c.blowLocked()
	fx := c.evaluateLocked()
	keep := c.mic && !c.tracker.IsComplete()
	ctx := c.ctx
	c.mu.Unlock()

	c.log(slog.LevelDebug, "blow applied", "level", event.Level, "at_ms", event.At.Milliseconds(), "changed", changed)
	c.apply(ctx, fx)
	c.notify()
	return keep
}

func (c *Controller) onStatus(status blow.Status) {
	c.mu.Lock()
	ctx := c.ctx
	celebrating := c.celebrating
	if status.Err != nil {
		// No automatic retry: the mic stays off until toggled on again.
		c.mic = false
	}
	c.mu.Unlock()

	switch {
	case status.Err != nil:
		c.indicator.ShowMicError(ctx, "")
	case status.Listening:
		c.indicator.ShowListening(ctx)
	default:
		if !celebrating {
			c.indicator.Hide(ctx)
		}
		// A loop that ended on its own may race a relight whose Enable was
		// ignored while the old activation was still winding down.
		c.resync.Add(1)
		go func() {
			defer c.resync.Done()
			c.syncMonitor()
		}()
	}
	c.notify()
}

func (c *Controller) log(level slog.Level, msg string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Log(context.Background(), level, msg, args...)
}

// unavailableSampler stands in when no capture backend is wired.
type unavailableSampler struct{}

func (unavailableSampler) Start(context.Context) (<-chan blow.Sample, error) {
	return nil, fmt.Errorf("%w: no capture backend", blow.ErrDeviceUnavailable)
}

func (unavailableSampler) Stop() error { return nil }
