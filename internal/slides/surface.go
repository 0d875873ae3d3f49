package slides

import (
	"github.com/ziadkadry99/backdrop/internal/page"
)

// ActiveClass marks the visible region.
const ActiveClass = "active"

// RegionClass identifies slide regions in the host page.
const RegionClass = "slide"

// Surface is what the rotator paints on. Regions are addressed by index;
// the set never grows or shrinks.
type Surface interface {
	Len() int
	SetActive(i int, active bool)
	SetBackground(i int, a Asset)
	// SetTransition leaves exactly one transition class on region i.
	SetTransition(i int, t Transition)
}

// PageSurface paints on slide regions of a page document.
type PageSurface struct {
	regions []*page.Element
}

// NewPageSurface collects the regions carrying class from doc, in
// document order.
func NewPageSurface(doc *page.Document, class string) *PageSurface {
	if class == "" {
		class = RegionClass
	}
	return &PageSurface{regions: doc.ByClass(class)}
}

func (s *PageSurface) Len() int {
	return len(s.regions)
}

func (s *PageSurface) SetActive(i int, active bool) {
	if active {
		s.regions[i].AddClass(ActiveClass)
		return
	}
	s.regions[i].RemoveClass(ActiveClass)
}

func (s *PageSurface) SetBackground(i int, a Asset) {
	el := s.regions[i]
	if a.Kind == KindGradient {
		el.RemoveStyle("background-image")
	}
	el.SetStyle(a.Property(), a.Value())
}

func (s *PageSurface) SetTransition(i int, t Transition) {
	el := s.regions[i]
	el.RemoveClass(TransitionClasses()...)
	el.AddClass(string(t))
}
