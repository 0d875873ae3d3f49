package enhancer

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/backdrop/internal/page"
	"github.com/ziadkadry99/backdrop/internal/player"
	"github.com/ziadkadry99/backdrop/internal/poem"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

// Options configures the three page enhancements.
type Options struct {
	// BaseURL is the page address that pictures/ and the poem resolve against.
	BaseURL string

	Candidates   []string
	Gradients    []string
	Interval     time.Duration
	ProbeTimeout time.Duration
	Policy       slides.TargetPolicy
	Chooser      slides.Chooser
	// Static assigns the initial slides but never starts the ticker.
	Static bool

	DefaultTrackID string
	PoemName       string

	Client *http.Client
	// OnRotate receives the slide state after the initial assignment and
	// after every step.
	OnRotate func(slides.State)
}

// Enhancer applies the slideshow, player and poem to a page. Each feature
// starts on its own goroutine and never waits for the others.
type Enhancer struct {
	opts   Options
	logger *zap.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	rotator *slides.Rotator
	closed  bool
}

// New returns an Enhancer. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	return &Enhancer{opts: opts, logger: logger}
}

// Ready starts every enhancement against doc. ctx bounds both the startup
// I/O and the lifetime of the slide rotation.
func (e *Enhancer) Ready(ctx context.Context, doc *page.Document) {
	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		e.startSlides(ctx, doc)
	}()
	go func() {
		defer e.wg.Done()
		e.startPlayer(doc)
	}()
	go func() {
		defer e.wg.Done()
		e.startPoem(ctx, doc)
	}()
}

// Wait blocks until every startup sequence has settled.
func (e *Enhancer) Wait() {
	e.wg.Wait()
}

// Rotator returns the slide rotator, or nil if the slideshow did not start.
func (e *Enhancer) Rotator() *slides.Rotator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rotator
}

// Close stops the slide rotation. It is safe to call before startup has
// finished and more than once.
func (e *Enhancer) Close() {
	e.mu.Lock()
	e.closed = true
	r := e.rotator
	e.mu.Unlock()

	if r != nil {
		r.Stop()
	}
}

func (e *Enhancer) startSlides(ctx context.Context, doc *page.Document) {
	log := e.logger.Named("slides")

	surface := slides.NewPageSurface(doc, slides.RegionClass)
	if surface.Len() == 0 {
		log.Debug("no slide regions, slideshow disabled")
		return
	}

	candidates := e.opts.Candidates
	if len(candidates) == 0 {
		candidates = slides.DefaultCandidates
	}
	prober := slides.NewProber(e.opts.BaseURL, log)
	prober.Client = e.opts.Client
	if e.opts.ProbeTimeout > 0 {
		prober.Timeout = e.opts.ProbeTimeout
	}

	found := prober.Probe(ctx, candidates)
	assets := slides.Resolve(found, e.opts.Gradients)
	if len(found) == 0 {
		log.Info("no pictures reachable, using gradients", zap.Int("gradients", len(assets)))
	}

	opts := []slides.Option{
		slides.WithInterval(e.opts.Interval),
		slides.WithTargetPolicy(e.opts.Policy),
		slides.WithChooser(e.opts.Chooser),
		slides.WithLogger(log),
	}
	if e.opts.OnRotate != nil {
		opts = append(opts, slides.WithListener(e.opts.OnRotate))
	}
	r, err := slides.NewRotator(surface, assets, opts...)
	if err != nil {
		log.Debug("slideshow not started", zap.Error(err))
		return
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		r.Stop()
		return
	}
	e.rotator = r
	e.mu.Unlock()

	if e.opts.OnRotate != nil {
		e.opts.OnRotate(r.Snapshot())
	}
	if e.opts.Static {
		return
	}
	if !r.Start(ctx) {
		log.Debug("rotation not scheduled", zap.Int("regions", r.Len()), zap.Int("assets", len(assets)))
	}
}

func (e *Enhancer) startPlayer(doc *page.Document) {
	player.New(e.opts.DefaultTrackID, e.logger.Named("player")).Embed(doc)
}

func (e *Enhancer) startPoem(ctx context.Context, doc *page.Document) {
	r := poem.NewRenderer(e.opts.BaseURL, e.opts.PoemName, e.logger.Named("poem"))
	r.Client = e.opts.Client
	r.Run(ctx, doc)
}
