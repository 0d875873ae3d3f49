package slides

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ziadkadry99/backdrop/internal/page"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memSurface records what the rotator paints, and how many times.
type memSurface struct {
	mu          sync.Mutex
	active      []bool
	backgrounds []Asset
	tags        [][]Transition
	calls       int
}

func newMemSurface(n int) *memSurface {
	return &memSurface{
		active:      make([]bool, n),
		backgrounds: make([]Asset, n),
		tags:        make([][]Transition, n),
	}
}

func (s *memSurface) Len() int { return len(s.active) }

func (s *memSurface) SetActive(i int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.active[i] = active
}

func (s *memSurface) SetBackground(i int, a Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.backgrounds[i] = a
}

func (s *memSurface) SetTransition(i int, t Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.tags[i] = []Transition{t}
}

func (s *memSurface) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func images(refs ...string) AssetList {
	return Resolve(refs, nil)
}

func TestNewRotatorInitialAssignment(t *testing.T) {
	surface := newMemSurface(4)
	assets := images("pictures/a.jpg", "pictures/b.jpg", "pictures/c.jpg")

	r, err := NewRotator(surface, assets, WithChooser(SequenceChooser(0, 1, 2, 3)))
	require.NoError(t, err)

	st := r.Snapshot()
	assert.Equal(t, 0, st.Cursor)
	require.Len(t, st.Slides, 4)

	wantBG := []string{"pictures/a.jpg", "pictures/b.jpg", "pictures/c.jpg", "pictures/a.jpg"}
	wantTag := []Transition{FadeTransition, ScaleTransition, BlurTransition, ZoomTransition}
	for i, s := range st.Slides {
		assert.Equal(t, i == 0, s.Active, "slide %d active", i)
		assert.Equal(t, wantBG[i], s.Background.Ref, "slide %d background", i)
		assert.Equal(t, wantTag[i], s.Transition, "slide %d transition", i)
		assert.Equal(t, s.Background, surface.backgrounds[i])
		assert.Equal(t, s.Active, surface.active[i])
	}
}

func TestNewRotatorRejectsEmpty(t *testing.T) {
	_, err := NewRotator(newMemSurface(3), nil)
	assert.ErrorIs(t, err, ErrNoAssets)

	_, err = NewRotator(newMemSurface(0), images("a"))
	assert.ErrorIs(t, err, ErrNoRegions)
}

func TestStepIsDeterministic(t *testing.T) {
	// N=3, M=4, previous-region policy.
	assets := images("a", "b", "c", "d")
	r, err := NewRotator(newMemSurface(3), assets, WithChooser(SequenceChooser(0, 0, 0, 4, 3, 2)))
	require.NoError(t, err)

	r.Step()
	st := r.Snapshot()
	assert.Equal(t, 1, st.Cursor)
	assert.Equal(t, uint64(1), st.Step)
	assert.False(t, st.Slides[0].Active)
	assert.True(t, st.Slides[1].Active)
	// Region 0 was just deactivated and receives assets[(1+1) mod 4].
	assert.Equal(t, "c", st.Slides[0].Background.Ref)
	assert.Equal(t, SlideTransition, st.Slides[0].Transition)

	r.Step()
	st = r.Snapshot()
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, "d", st.Slides[1].Background.Ref)
	assert.Equal(t, ZoomTransition, st.Slides[1].Transition)

	r.Step()
	st = r.Snapshot()
	assert.Equal(t, 0, st.Cursor)
	assert.Equal(t, "b", st.Slides[2].Background.Ref)
	assert.Equal(t, BlurTransition, st.Slides[2].Transition)
}

func TestStepLookaheadPolicy(t *testing.T) {
	assets := images("a", "b", "c", "d")
	r, err := NewRotator(newMemSurface(3), assets,
		WithChooser(SequenceChooser(0)),
		WithTargetPolicy(TargetLookahead),
	)
	require.NoError(t, err)

	r.Step()
	st := r.Snapshot()
	assert.Equal(t, 1, st.Cursor)
	// Region (1+1) mod 3 = 2 is updated, not the deactivated region 0.
	assert.Equal(t, "c", st.Slides[2].Background.Ref)
	assert.Equal(t, "a", st.Slides[0].Background.Ref)
}

func TestRotationWrapsAround(t *testing.T) {
	for n := 2; n <= 7; n++ {
		r, err := NewRotator(newMemSurface(n), images("a", "b"))
		require.NoError(t, err)

		start := r.Snapshot().Cursor
		for i := 0; i < n; i++ {
			r.Step()
			st := r.Snapshot()
			active := 0
			for _, s := range st.Slides {
				if s.Active {
					active++
				}
			}
			assert.Equal(t, 1, active, "exactly one active region (n=%d)", n)
		}
		assert.Equal(t, start, r.Snapshot().Cursor, "n=%d", n)
	}
}

func TestSingleAssetKeepsBackground(t *testing.T) {
	r, err := NewRotator(newMemSurface(3), images("only"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		r.Step()
	}
	for _, s := range r.Snapshot().Slides {
		assert.Equal(t, "only", s.Background.Ref)
	}
}

func TestSingleRegionNeverStarts(t *testing.T) {
	surface := newMemSurface(1)
	r, err := NewRotator(surface, images("a", "b", "c"), WithInterval(time.Millisecond))
	require.NoError(t, err)

	before := surface.callCount()
	assert.False(t, r.CanRotate())
	assert.False(t, r.Start(context.Background()))
	assert.False(t, r.Running())

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, before, surface.callCount())
	r.Stop()
}

func TestSingleAssetDoesNotStart(t *testing.T) {
	r, err := NewRotator(newMemSurface(3), images("a"))
	require.NoError(t, err)
	assert.False(t, r.Start(context.Background()))
}

func TestStartTicksAndStops(t *testing.T) {
	var (
		mu     sync.Mutex
		states []State
	)
	r, err := NewRotator(newMemSurface(3), images("a", "b"),
		WithInterval(time.Millisecond),
		WithListener(func(st State) {
			mu.Lock()
			states = append(states, st)
			mu.Unlock()
		}),
	)
	require.NoError(t, err)

	require.True(t, r.Start(context.Background()))
	assert.False(t, r.Start(context.Background()), "second Start must not launch another ticker")
	assert.True(t, r.Running())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) >= 3
	}, time.Second, time.Millisecond)

	r.Stop()
	r.Stop()
	assert.False(t, r.Running())

	after := r.Snapshot()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, r.Snapshot(), "no mutation after Stop")

	r.Step()
	assert.Equal(t, after, r.Snapshot(), "Step after Stop is a no-op")
	assert.False(t, r.Start(context.Background()), "cannot restart after Stop")
}

func TestStartEndsWithContext(t *testing.T) {
	r, err := NewRotator(newMemSurface(2), images("a", "b"), WithInterval(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, r.Start(ctx))
	cancel()

	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond,
		"Running must turn false once the ctx is done")
	r.Stop()
}

func TestListenerMayStopRotator(t *testing.T) {
	var r *Rotator
	stopped := make(chan struct{})
	var once sync.Once

	r, err := NewRotator(newMemSurface(3), images("a", "b"),
		WithInterval(time.Millisecond),
		WithListener(func(State) {
			once.Do(func() {
				r.Stop()
				close(stopped)
			})
		}),
	)
	require.NoError(t, err)
	require.True(t, r.Start(context.Background()))

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called from a listener did not return")
	}
	assert.False(t, r.Running())

	after := r.Snapshot()
	assert.Equal(t, uint64(1), after.Step)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, r.Snapshot(), "no mutation after Stop")
}

func TestPageSurfaceTagExclusivity(t *testing.T) {
	doc, err := page.ParseString(`<html><body>
<div class="slide active fade-transition"></div>
<div class="slide zoom-transition blur-transition"></div>
<div class="slide"></div>
</body></html>`)
	require.NoError(t, err)

	surface := NewPageSurface(doc, "")
	require.Equal(t, 3, surface.Len())

	r, err := NewRotator(surface, Resolve(nil, nil), WithChooser(SequenceChooser(1, 2, 3, 4, 0, 1, 2)))
	require.NoError(t, err)

	countTags := func(el *page.Element) int {
		n := 0
		for _, c := range el.Classes() {
			for _, tr := range Transitions {
				if c == string(tr) {
					n++
				}
			}
		}
		return n
	}

	regions := doc.ByClass("slide")
	for _, el := range regions {
		assert.Equal(t, 1, countTags(el))
	}

	for i := 0; i < 6; i++ {
		r.Step()
		for j, el := range regions {
			assert.Equal(t, 1, countTags(el), "step %d region %d", i, j)
		}
		st := r.Snapshot()
		for j, el := range regions {
			assert.Equal(t, j == st.Cursor, el.HasClass(ActiveClass), "step %d region %d active", i, j)
		}
	}

	// Gradient fallback is written to the background shorthand.
	assert.Contains(t, regions[0].Style("background"), "linear-gradient")
	assert.Empty(t, regions[0].Style("background-image"))
}

func TestPageSurfaceImageBackground(t *testing.T) {
	doc, err := page.ParseString(`<html><body><div class="slide"></div><div class="slide"></div></body></html>`)
	require.NoError(t, err)

	_, err = NewRotator(NewPageSurface(doc, "slide"), images("pictures/image1.jpg"))
	require.NoError(t, err)

	for _, el := range doc.ByClass("slide") {
		assert.Equal(t, "url('pictures/image1.jpg')", el.Style("background-image"))
	}
}

func TestParseTargetPolicy(t *testing.T) {
	p, err := ParseTargetPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TargetPrevious, p)

	p, err = ParseTargetPolicy("lookahead")
	require.NoError(t, err)
	assert.Equal(t, TargetLookahead, p)

	_, err = ParseTargetPolicy("sideways")
	assert.Error(t, err)
}
