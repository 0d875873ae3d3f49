package slides

import (
	"fmt"
	"strings"
)

// Kind distinguishes image backgrounds from generated gradients.
type Kind string

const (
	KindImage    Kind = "image"
	KindGradient Kind = "gradient"
)

// Asset is one background reference: either an image location relative to
// the page or a CSS gradient descriptor.
type Asset struct {
	Ref  string `json:"ref"`
	Kind Kind   `json:"kind"`
}

// Property returns the inline style property the asset is written to.
func (a Asset) Property() string {
	if a.Kind == KindGradient {
		return "background"
	}
	return "background-image"
}

// Value returns the CSS value for Property.
func (a Asset) Value() string {
	if a.Kind == KindGradient {
		return a.Ref
	}
	return fmt.Sprintf("url('%s')", a.Ref)
}

// AssetList is the resolved, ordered set of backgrounds. It is never
// modified after Resolve returns it.
type AssetList []Asset

// DefaultCandidates are the image names probed under pictures/ when the
// configuration does not list any.
var DefaultCandidates = []string{
	"image1.jpg",
	"image2.jpg",
	"image3.jpg",
	"image4.jpg",
	"image5.jpg",
}

// DefaultGradients is the fallback used when no image is reachable.
var DefaultGradients = []string{
	"linear-gradient(135deg, #667eea 0%, #764ba2 100%)",
	"linear-gradient(135deg, #f093fb 0%, #f5576c 100%)",
	"linear-gradient(135deg, #4facfe 0%, #00f2fe 100%)",
	"linear-gradient(135deg, #43e97b 0%, #38f9d7 100%)",
	"linear-gradient(135deg, #fa709a 0%, #fee140 100%)",
	"linear-gradient(135deg, #30cfd0 0%, #330867 100%)",
	"linear-gradient(135deg, #a8edea 0%, #fed6e3 100%)",
	"linear-gradient(135deg, #ff9a9e 0%, #fecfef 100%)",
}

// Resolve builds the asset list from the image locations that answered a
// probe. When found is empty the gradients are used instead, and when those
// are empty too DefaultGradients is used, so the result always has at least
// one entry.
func Resolve(found []string, gradients []string) AssetList {
	if len(found) > 0 {
		out := make(AssetList, 0, len(found))
		for _, ref := range found {
			out = append(out, Asset{Ref: ref, Kind: KindImage})
		}
		return out
	}

	if len(gradients) == 0 {
		gradients = DefaultGradients
	}
	out := make(AssetList, 0, len(gradients))
	for _, g := range gradients {
		out = append(out, Asset{Ref: g, Kind: KindGradient})
	}
	return out
}

// IsGradient reports whether s looks like a CSS gradient descriptor.
func IsGradient(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "linear-gradient") ||
		strings.HasPrefix(s, "radial-gradient") ||
		strings.HasPrefix(s, "conic-gradient")
}
