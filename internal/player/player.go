package player

import (
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/backdrop/internal/page"
)

// DefaultTrackID is embedded when the container carries no track id.
const DefaultTrackID = "3n3Ppam7vgaVa1iaRUc9Lp"

const (
	// ContainerClass identifies the region holding player configuration.
	ContainerClass = "spotify-container"
	// PlaceholderID identifies the element replaced by the frame.
	PlaceholderID = "spotify-player"
	// TrackIDKey is the data attribute (without "data-") holding the track.
	TrackIDKey = "spotify-track-id"

	embedBase = "https://open.spotify.com/embed/track/"
	allowList = "autoplay; clipboard-write; encrypted-media; fullscreen; picture-in-picture"
)

// Player injects the track embed into a page.
type Player struct {
	DefaultTrackID string
	Logger         *zap.Logger
}

// New returns a Player falling back to defaultTrackID, or DefaultTrackID
// when that is empty.
func New(defaultTrackID string, logger *zap.Logger) *Player {
	if defaultTrackID == "" {
		defaultTrackID = DefaultTrackID
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{DefaultTrackID: defaultTrackID, Logger: logger}
}

// TrackID reads the track id from the container's data attribute, falling
// back to the player default when the container or attribute is missing.
func (p *Player) TrackID(container *page.Element) string {
	if container != nil {
		if id, ok := container.Data(TrackIDKey); ok && id != "" {
			return id
		}
	}
	return p.DefaultTrackID
}

// EmbedURL returns the embed address for trackID.
func EmbedURL(trackID string) string {
	return fmt.Sprintf("%s%s?utm_source=generator&theme=0", embedBase, url.PathEscape(trackID))
}

// Frame builds the detached iframe node for trackID.
func Frame(trackID string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "iframe",
		DataAtom: atom.Iframe,
		Attr: []html.Attribute{
			{Key: "style", Val: "border-radius: 12px"},
			{Key: "src", Val: EmbedURL(trackID)},
			{Key: "width", Val: "100%"},
			{Key: "height", Val: "152"},
			{Key: "frameborder", Val: "0"},
			{Key: "allowfullscreen", Val: ""},
			{Key: "allow", Val: allowList},
			{Key: "loading", Val: "lazy"},
		},
	}
}

// Embed replaces the placeholder's content with the track frame. It
// reports whether the page had a placeholder to fill.
func (p *Player) Embed(doc *page.Document) bool {
	placeholder := doc.ByID(PlaceholderID)
	if placeholder == nil {
		p.Logger.Debug("player placeholder missing", zap.String("id", PlaceholderID))
		return false
	}

	trackID := p.TrackID(doc.First(ContainerClass))
	placeholder.ReplaceChildren(Frame(trackID))

	p.Logger.Info("player embedded", zap.String("track_id", trackID))
	return true
}
