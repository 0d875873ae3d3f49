package slides

import "math/rand"

// Transition is the class that selects a slide's entry animation. A slide
// carries exactly one at a time.
type Transition string

const (
	FadeTransition  Transition = "fade-transition"
	ScaleTransition Transition = "scale-transition"
	BlurTransition  Transition = "blur-transition"
	ZoomTransition  Transition = "zoom-transition"
	SlideTransition Transition = "slide-transition"
)

// Transitions is the fixed set tags are drawn from.
var Transitions = []Transition{FadeTransition, ScaleTransition, BlurTransition, ZoomTransition, SlideTransition}

// TransitionClasses returns Transitions as plain class names.
func TransitionClasses() []string {
	out := make([]string, len(Transitions))
	for i, t := range Transitions {
		out[i] = string(t)
	}
	return out
}

// Chooser returns an index in [0, n).
type Chooser func(n int) int

// RandomChooser draws uniformly from the global source.
func RandomChooser() Chooser {
	return rand.Intn
}

// SequenceChooser replays seq, cycling when it runs out. Values are taken
// modulo n.
func SequenceChooser(seq ...int) Chooser {
	i := 0
	return func(n int) int {
		if len(seq) == 0 || n <= 0 {
			return 0
		}
		v := seq[i%len(seq)]
		i++
		v %= n
		if v < 0 {
			v += n
		}
		return v
	}
}

func pick(choose Chooser) Transition {
	return Transitions[choose(len(Transitions))]
}
