package enhancer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ziadkadry99/backdrop/internal/page"
	"github.com/ziadkadry99/backdrop/internal/slides"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const hostPage = `<!DOCTYPE html><html><body>
<div class="slideshow">
  <div class="slide active"></div>
  <div class="slide"></div>
  <div class="slide"></div>
</div>
<div class="spotify-container" data-spotify-track-id="abc123"><div id="spotify-player">…</div></div>
<h2 class="poem-title">Static</h2>
<div class="poem-body"><p>static</p></div>
</body></html>`

func newSite(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(srv.Close)
	return srv
}

func TestReadyAppliesAllFeatures(t *testing.T) {
	srv := newSite(t, map[string]string{
		"pictures/image2.jpg": "x",
		"pictures/image4.jpg": "x",
		"poem.md":             "# Tide\nIn  \n\nOut\n",
	})

	doc, err := page.ParseString(hostPage)
	require.NoError(t, err)

	var states []slides.State
	e := New(Options{
		BaseURL:  srv.URL + "/",
		Client:   srv.Client(),
		Static:   true,
		Chooser:  slides.SequenceChooser(0),
		OnRotate: func(st slides.State) { states = append(states, st) },
	}, nil)
	e.Ready(context.Background(), doc)
	e.Wait()
	defer e.Close()

	r := e.Rotator()
	require.NotNil(t, r)
	assert.False(t, r.Running())
	assert.Equal(t, slides.AssetList{
		{Ref: "pictures/image2.jpg", Kind: slides.KindImage},
		{Ref: "pictures/image4.jpg", Kind: slides.KindImage},
	}, r.Assets())

	regions := doc.ByClass("slide")
	require.Len(t, regions, 3)
	assert.Equal(t, "url('pictures/image2.jpg')", regions[0].Style("background-image"))
	assert.Equal(t, "url('pictures/image4.jpg')", regions[1].Style("background-image"))
	assert.Equal(t, "url('pictures/image2.jpg')", regions[2].Style("background-image"))
	assert.True(t, regions[0].HasClass("fade-transition"))
	require.Len(t, states, 1)

	assert.Contains(t, doc.ByID("spotify-player").InnerHTML(), "/embed/track/abc123?")

	assert.Equal(t, "Tide", doc.First("poem-title").Text())
	assert.Equal(t, "<p>In</p><br/><p>Out</p>", doc.First("poem-body").InnerHTML())
}

func TestReadyDegradesWhenSiteIsEmpty(t *testing.T) {
	srv := newSite(t, map[string]string{"index.html": hostPage})

	doc, err := page.ParseString(hostPage)
	require.NoError(t, err)

	e := New(Options{BaseURL: srv.URL + "/", Client: srv.Client(), Static: true}, nil)
	e.Ready(context.Background(), doc)
	e.Wait()
	defer e.Close()

	r := e.Rotator()
	require.NotNil(t, r)
	assert.Len(t, r.Assets(), len(slides.DefaultGradients))
	assert.Contains(t, doc.ByClass("slide")[0].Style("background"), "linear-gradient")

	assert.Equal(t, "Static", doc.First("poem-title").Text())
	assert.Equal(t, "<p>static</p>", doc.First("poem-body").InnerHTML())
}

func TestReadyStartsRotation(t *testing.T) {
	srv := newSite(t, nil)

	doc, err := page.ParseString(hostPage)
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		steps int
	)
	e := New(Options{
		BaseURL:  srv.URL + "/",
		Client:   srv.Client(),
		Interval: time.Millisecond,
		OnRotate: func(st slides.State) {
			mu.Lock()
			steps = int(st.Step)
			mu.Unlock()
		},
	}, nil)
	e.Ready(context.Background(), doc)
	e.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return steps >= 3
	}, time.Second, time.Millisecond)

	e.Close()
	e.Close()
	assert.False(t, e.Rotator().Running())
}

func TestReadyWithoutPlaceholders(t *testing.T) {
	srv := newSite(t, map[string]string{"poem.md": "# T\nA"})

	doc, err := page.ParseString(`<html><body><p>plain page</p></body></html>`)
	require.NoError(t, err)
	before := doc.String()

	e := New(Options{BaseURL: srv.URL + "/", Client: srv.Client()}, nil)
	e.Ready(context.Background(), doc)
	e.Wait()
	e.Close()

	assert.Nil(t, e.Rotator())
	assert.Equal(t, before, doc.String())
}
