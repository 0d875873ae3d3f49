package player

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/backdrop/internal/page"
)

func parse(t *testing.T, s string) *page.Document {
	t.Helper()
	doc, err := page.ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestEmbedUsesContainerTrack(t *testing.T) {
	doc := parse(t, `<html><body>
<div class="spotify-container" data-spotify-track-id="abc123">
  <div id="spotify-player"><p>Loading player…</p></div>
</div></body></html>`)

	require.True(t, New("", nil).Embed(doc))

	inner := doc.ByID("spotify-player").InnerHTML()
	assert.NotContains(t, inner, "Loading player")
	assert.Equal(t, 1, strings.Count(inner, "<iframe"))
	assert.Contains(t, inner, "https://open.spotify.com/embed/track/abc123?utm_source=generator&amp;theme=0")
	assert.NotContains(t, inner, DefaultTrackID)
}

func TestEmbedDefaultsTrack(t *testing.T) {
	doc := parse(t, `<html><body>
<div class="spotify-container"><div id="spotify-player"></div></div>
</body></html>`)

	require.True(t, New("", nil).Embed(doc))
	assert.Contains(t, doc.ByID("spotify-player").InnerHTML(), "/embed/track/3n3Ppam7vgaVa1iaRUc9Lp?")
}

func TestEmbedWithoutContainer(t *testing.T) {
	doc := parse(t, `<html><body><div id="spotify-player"></div></body></html>`)
	require.True(t, New("configured42", nil).Embed(doc))
	assert.Contains(t, doc.ByID("spotify-player").InnerHTML(), "/embed/track/configured42?")
}

func TestEmbedMissingPlaceholder(t *testing.T) {
	doc := parse(t, `<html><body><div class="spotify-container" data-spotify-track-id="x"></div></body></html>`)
	before := doc.String()

	assert.False(t, New("", nil).Embed(doc))
	assert.Equal(t, before, doc.String())
}

func TestFrameAttributes(t *testing.T) {
	f := Frame("abc123")
	attrs := map[string]string{}
	for _, a := range f.Attr {
		attrs[a.Key] = a.Val
	}

	assert.Equal(t, "iframe", f.Data)
	assert.Equal(t, "100%", attrs["width"])
	assert.Equal(t, "152", attrs["height"])
	assert.Equal(t, "lazy", attrs["loading"])
	for _, perm := range []string{"autoplay", "clipboard-write", "fullscreen", "picture-in-picture"} {
		assert.Contains(t, attrs["allow"], perm)
	}
	_, ok := attrs["allowfullscreen"]
	assert.True(t, ok)
}

func TestTrackIDIgnoresEmptyAttribute(t *testing.T) {
	doc := parse(t, `<html><body><div class="spotify-container" data-spotify-track-id=""></div></body></html>`)
	assert.Equal(t, DefaultTrackID, New("", nil).TrackID(doc.First(ContainerClass)))
	assert.Equal(t, DefaultTrackID, New("", nil).TrackID(nil))
}
