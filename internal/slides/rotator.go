package slides

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the time between rotation steps.
const DefaultInterval = 5000 * time.Millisecond

// ErrNoAssets is returned by NewRotator when the asset list is empty.
var ErrNoAssets = errors.New("slides: no assets to rotate")

// ErrNoRegions is returned by NewRotator when the surface has no regions.
var ErrNoRegions = errors.New("slides: no slide regions")

// TargetPolicy selects which region receives the look-ahead background and
// the fresh transition on each step.
type TargetPolicy string

const (
	// TargetPrevious updates the region that was just deactivated.
	TargetPrevious TargetPolicy = "previous"
	// TargetLookahead updates region (cursor+1) mod N, which only matches
	// the deactivated region when N is 2.
	TargetLookahead TargetPolicy = "lookahead"
)

// ParseTargetPolicy maps a config string to a policy. Empty means
// TargetPrevious.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch TargetPolicy(s) {
	case "", TargetPrevious:
		return TargetPrevious, nil
	case TargetLookahead:
		return TargetLookahead, nil
	default:
		return "", fmt.Errorf("invalid target policy %q: must be previous or lookahead", s)
	}
}

// Slide is the rotator's record of one region.
type Slide struct {
	Active     bool       `json:"active"`
	Background Asset      `json:"background"`
	Transition Transition `json:"transition"`
}

// State is a point-in-time copy of the rotation.
type State struct {
	Cursor int     `json:"cursor"`
	Step   uint64  `json:"step"`
	Slides []Slide `json:"slides"`
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithInterval sets the rotation period.
func WithInterval(d time.Duration) Option {
	return func(r *Rotator) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithChooser replaces the random transition choice.
func WithChooser(c Chooser) Option {
	return func(r *Rotator) {
		if c != nil {
			r.choose = c
		}
	}
}

// WithTargetPolicy selects the region updated on each step.
func WithTargetPolicy(p TargetPolicy) Option {
	return func(r *Rotator) { r.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Rotator) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithListener registers fn to receive the state after every step.
// Listeners run on the goroutine that stepped, which is the ticker
// goroutine once Start has been called. A listener may call Stop.
func WithListener(fn func(State)) Option {
	return func(r *Rotator) {
		if fn != nil {
			r.listeners = append(r.listeners, fn)
		}
	}
}

// Rotator cycles backgrounds and transitions over a fixed set of regions.
// Cursor and slide records are only touched with mu held, so Step may be
// called from the ticker goroutine and from callers concurrently.
type Rotator struct {
	mu        sync.Mutex
	surface   Surface
	assets    AssetList
	slides    []Slide
	cursor    int
	steps     uint64
	choose    Chooser
	interval  time.Duration
	policy    TargetPolicy
	logger    *zap.Logger
	listeners []func(State)

	running bool
	ticking bool
	stopped bool
	stop    chan struct{}
	done    chan struct{}
}

// NewRotator performs the initial assignment: region i gets
// assets[i mod M] and a random transition, and region 0 becomes the only
// active one.
func NewRotator(surface Surface, assets AssetList, opts ...Option) (*Rotator, error) {
	if len(assets) == 0 {
		return nil, ErrNoAssets
	}
	if surface == nil || surface.Len() == 0 {
		return nil, ErrNoRegions
	}

	r := &Rotator{
		surface:  surface,
		assets:   assets,
		slides:   make([]Slide, surface.Len()),
		choose:   RandomChooser(),
		interval: DefaultInterval,
		policy:   TargetPrevious,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range r.slides {
		s := &r.slides[i]
		s.Active = i == 0
		s.Background = assets[i%len(assets)]
		s.Transition = pick(r.choose)

		surface.SetActive(i, s.Active)
		surface.SetBackground(i, s.Background)
		surface.SetTransition(i, s.Transition)
	}
	return r, nil
}

// Len returns the number of regions.
func (r *Rotator) Len() int {
	return len(r.slides)
}

// Assets returns the asset list the rotator was built with.
func (r *Rotator) Assets() AssetList {
	return r.assets
}

// CanRotate reports whether periodic rotation would do anything: it needs
// at least two regions and at least two assets.
func (r *Rotator) CanRotate() bool {
	return len(r.slides) > 1 && len(r.assets) > 1
}

// Step advances the rotation by one position. It does nothing once Stop
// has been called.
func (r *Rotator) Step() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}

	n := len(r.slides)
	prev := r.cursor

	r.slides[prev].Active = false
	r.surface.SetActive(prev, false)

	r.cursor = (r.cursor + 1) % n
	r.slides[r.cursor].Active = true
	r.surface.SetActive(r.cursor, true)

	target := prev
	if r.policy == TargetLookahead {
		target = (r.cursor + 1) % n
	}
	next := r.assets[(r.cursor+1)%len(r.assets)]
	tag := pick(r.choose)

	r.slides[target].Background = next
	r.slides[target].Transition = tag
	r.surface.SetBackground(target, next)
	r.surface.SetTransition(target, tag)

	r.steps++
	st := r.snapshotLocked()
	listeners := r.listeners
	r.mu.Unlock()

	r.logger.Debug("slide rotated",
		zap.Int("active", st.Cursor),
		zap.Int("updated", target),
		zap.String("background", next.Ref),
		zap.String("transition", string(tag)),
	)
	for _, fn := range listeners {
		fn(st)
	}
}

// Snapshot returns a copy of the current state.
func (r *Rotator) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Rotator) snapshotLocked() State {
	out := make([]Slide, len(r.slides))
	copy(out, r.slides)
	return State{Cursor: r.cursor, Step: r.steps, Slides: out}
}

// Start launches the rotation ticker. It returns false without starting
// anything when CanRotate is false, when a ticker is already live, or
// after Stop. The ticker ends when ctx is cancelled or Stop is called.
func (r *Rotator) Start(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running || r.stopped || !r.CanRotate() {
		return false
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.loop(ctx, r.stop, r.done)

	r.logger.Info("slide rotation started",
		zap.Int("regions", len(r.slides)),
		zap.Int("assets", len(r.assets)),
		zap.Duration("interval", r.interval),
	)
	return true
}

func (r *Rotator) loop(ctx context.Context, stop <-chan struct{}, done chan struct{}) {
	defer func() {
		r.mu.Lock()
		if r.done == done {
			r.running = false
		}
		r.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.setTicking(true)
			r.Step()
			r.setTicking(false)
		}
	}
}

func (r *Rotator) setTicking(v bool) {
	r.mu.Lock()
	r.ticking = v
	r.mu.Unlock()
}

// Running reports whether the ticker goroutine is live. It turns false once
// Stop is called or the ctx given to Start is done.
func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running && !r.stopped
}

// Stop cancels the ticker and waits for it to exit. No mutation happens
// after Stop returns. Calling Stop more than once is safe. While the ticker is
// delivering a step Stop does not wait, because the caller may be a
// listener on the ticker goroutine. That goroutine exits once the listeners
// return.
func (r *Rotator) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	done := r.done
	if r.ticking {
		done = nil
	}
	if r.stop != nil {
		close(r.stop)
	}
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}
