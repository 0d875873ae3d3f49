package slides

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds the whole probe batch.
const DefaultProbeTimeout = 5 * time.Second

// Prober checks which candidate images exist by issuing HEAD requests to
// <BaseURL>/<Dir>/<name>.
type Prober struct {
	Client  *http.Client
	BaseURL string
	Dir     string
	Timeout time.Duration
	Logger  *zap.Logger

	// OnResult, when set, is called once per candidate as its probe settles.
	// Calls are serialized.
	OnResult func(name string, ok bool)
}

// NewProber returns a Prober for the pictures directory under baseURL.
func NewProber(baseURL string, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		Client:  http.DefaultClient,
		BaseURL: baseURL,
		Dir:     "pictures",
		Timeout: DefaultProbeTimeout,
		Logger:  logger,
	}
}

// Probe issues one HEAD request per name concurrently and returns the
// page-relative references (e.g. "pictures/image1.jpg") of those that
// answered with a 2xx status, in the order of names. Failures of single
// candidates are dropped; an unusable base URL yields an empty result.
func (p *Prober) Probe(ctx context.Context, names []string) []string {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		p.logger().Debug("invalid probe base url", zap.String("base_url", p.BaseURL), zap.Error(err))
		return nil
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		ok = make([]bool, len(names))
		mu sync.Mutex
		g  errgroup.Group
	)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			exists := p.head(ctx, base, name)
			ok[i] = exists
			if p.OnResult != nil {
				mu.Lock()
				p.OnResult(name, exists)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var found []string
	for i, name := range names {
		if ok[i] {
			found = append(found, p.ref(name))
		}
	}
	return found
}

func (p *Prober) head(ctx context.Context, base *url.URL, name string) bool {
	target := base.ResolveReference(&url.URL{Path: p.ref(name)})
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		p.logger().Debug("building probe request", zap.String("name", name), zap.Error(err))
		return false
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		p.logger().Debug("probe failed", zap.String("url", target.String()), zap.Error(err))
		return false
	}
	resp.Body.Close()

	exists := resp.StatusCode >= 200 && resp.StatusCode < 300
	p.logger().Debug("probe", zap.String("url", target.String()), zap.Int("status", resp.StatusCode), zap.Bool("exists", exists))
	return exists
}

func (p *Prober) ref(name string) string {
	if p.Dir == "" {
		return name
	}
	return path.Join(p.Dir, name)
}

func (p *Prober) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Discover expands a doublestar pattern inside dir of fsys and returns the
// matching file names relative to dir, sorted.
func Discover(fsys fs.FS, dir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, nil
	}
	matches, err := doublestar.Glob(fsys, path.Join(dir, pattern), doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discovering %q in %s: %w", pattern, dir, err)
	}

	prefix := strings.TrimSuffix(dir, "/") + "/"
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimPrefix(m, prefix))
	}
	sort.Strings(names)
	return names, nil
}

// MergeCandidates appends extra names to base, skipping duplicates while
// keeping first-seen order.
func MergeCandidates(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	var out []string
	for _, list := range [][]string{base, extra} {
		for _, name := range list {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
