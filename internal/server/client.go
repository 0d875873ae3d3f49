package server

import (
	"net/http"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ziadkadry99/backdrop/internal/page"
)

const clientScriptPath = "backdrop.js"

// InjectClient appends the live-update script to the page body. Pages
// without a body are left as they are.
func InjectClient(doc *page.Document) bool {
	body := doc.Body()
	if body == nil {
		return false
	}
	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "src", Val: clientScriptPath},
			{Key: "defer", Val: ""},
		},
	}
	body.AppendChild(script)
	return true
}

func handleClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write([]byte(clientScript))
}

// clientScript mirrors rotation states from /ws/slides onto the slide
// regions of the served snapshot.
const clientScript = `(function () {
  var transitions = ['fade-transition', 'scale-transition', 'blur-transition', 'zoom-transition', 'slide-transition'];
  var slides = document.querySelectorAll('.slide');
  if (!slides.length || !window.WebSocket) return;

  function apply(state) {
    state.slides.forEach(function (s, i) {
      var el = slides[i];
      if (!el) return;
      el.classList.toggle('active', s.active);
      transitions.forEach(function (t) { el.classList.remove(t); });
      el.classList.add(s.transition);
      if (s.background.kind === 'gradient') {
        el.style.backgroundImage = '';
        el.style.background = s.background.ref;
      } else {
        el.style.backgroundImage = "url('" + s.background.ref + "')";
      }
    });
  }

  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws = new WebSocket(proto + location.host + '/ws/slides');
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type === 'state') apply(msg.state);
  };
})();
`
