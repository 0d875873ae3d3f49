package poem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/backdrop/internal/page"
)

const (
	// DefaultName is the markup resource fetched relative to the page.
	DefaultName = "poem.md"
	// TitleClass and BodyClass identify the placeholders.
	TitleClass = "poem-title"
	BodyClass  = "poem-body"

	maxPoemBytes = 1 << 20
)

// ErrStatus is wrapped by Fetch when the server answers with a non-2xx
// status.
var ErrStatus = errors.New("poem: unexpected status")

// ErrTooLarge is wrapped by Fetch when the poem exceeds the size limit.
var ErrTooLarge = errors.New("poem: file too large")

// Placeholders receives a parsed poem.
type Placeholders interface {
	SetTitle(text string)
	SetBody(lines []Line)
}

// Apply writes d to p. The title is replaced only when the markup had a
// heading, and the body only when at least one line was produced.
func Apply(p Placeholders, d Document) {
	if d.HasTitle {
		p.SetTitle(d.Title)
	}
	if len(d.Lines) > 0 {
		p.SetBody(d.Lines)
	}
}

// Nodes renders lines as detached <p> and <br> nodes.
func Nodes(lines []Line) []*html.Node {
	out := make([]*html.Node, 0, len(lines))
	for _, l := range lines {
		switch l.Kind {
		case Break:
			out = append(out, &html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		default:
			p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
			p.AppendChild(&html.Node{Type: html.TextNode, Data: l.Text})
			out = append(out, p)
		}
	}
	return out
}

type pagePlaceholders struct {
	title *page.Element
	body  *page.Element
}

func (p pagePlaceholders) SetTitle(text string) { p.title.SetText(text) }

func (p pagePlaceholders) SetBody(lines []Line) { p.body.ReplaceChildren(Nodes(lines)...) }

// Locate finds both placeholders in doc. It reports false when either one
// is missing.
func Locate(doc *page.Document, titleClass, bodyClass string) (Placeholders, bool) {
	title := doc.First(titleClass)
	body := doc.First(bodyClass)
	if title == nil || body == nil {
		return nil, false
	}
	return pagePlaceholders{title: title, body: body}, true
}

// Renderer fetches the poem markup and swaps it into the page.
type Renderer struct {
	Client     *http.Client
	BaseURL    string
	Name       string
	TitleClass string
	BodyClass  string
	Logger     *zap.Logger
}

// NewRenderer returns a Renderer resolving name against baseURL.
func NewRenderer(baseURL, name string, logger *zap.Logger) *Renderer {
	if name == "" {
		name = DefaultName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		Client:     http.DefaultClient,
		BaseURL:    baseURL,
		Name:       name,
		TitleClass: TitleClass,
		BodyClass:  BodyClass,
		Logger:     logger,
	}
}

// Fetch retrieves the markup text.
func (r *Renderer) Fetch(ctx context.Context) (string, error) {
	base, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	target := base.ResolveReference(&url.URL{Path: r.Name})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetching %s: %w %d", target, ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPoemBytes+1))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", target, err)
	}
	if len(data) > maxPoemBytes {
		return "", fmt.Errorf("reading %s: %w (limit %d bytes)", target, ErrTooLarge, maxPoemBytes)
	}
	return string(data), nil
}

// Render fetches, parses and applies the poem to p. On any fetch failure p
// is left untouched and false is returned.
func (r *Renderer) Render(ctx context.Context, p Placeholders) bool {
	text, err := r.Fetch(ctx)
	if err != nil {
		r.Logger.Debug("poem unavailable, keeping static content", zap.Error(err))
		return false
	}

	d := Parse(text)
	Apply(p, d)
	r.Logger.Info("poem rendered", zap.String("title", d.Title), zap.Int("lines", len(d.Lines)))
	return true
}

// Run renders into doc's placeholders. Pages without both placeholders are
// left alone.
func (r *Renderer) Run(ctx context.Context, doc *page.Document) bool {
	p, ok := Locate(doc, r.TitleClass, r.BodyClass)
	if !ok {
		r.Logger.Debug("poem placeholders missing",
			zap.String("title_class", r.TitleClass),
			zap.String("body_class", r.BodyClass),
		)
		return false
	}
	return r.Render(ctx, p)
}
