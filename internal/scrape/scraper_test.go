package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomap/internal/org"
	"ecomap/internal/resolve"
)

// redirectTransport sends every request to one test server, keeping the path.
type redirectTransport struct {
	target *url.URL

	mu   sync.Mutex
	seen []string
}

func (rt *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	rt.seen = append(rt.seen, req.Method+" "+req.URL.Host+req.URL.Path)
	rt.mu.Unlock()

	out := req.Clone(req.Context())
	out.URL.Scheme = rt.target.Scheme
	out.URL.Host = rt.target.Host
	out.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func (rt *redirectTransport) requests() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]string(nil), rt.seen...)
}

type staticPage struct {
	html string
	err  error
}

func (p staticPage) Fetch(ctx context.Context, pageURL string) (string, error) {
	return p.html, p.err
}

type pageFunc func(ctx context.Context, pageURL string) (string, error)

func (f pageFunc) Fetch(ctx context.Context, pageURL string) (string, error) { return f(ctx, pageURL) }

func newScraper(t *testing.T, handler http.Handler, pages PageFetcher) (*Scraper, *redirectTransport) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	rt := &redirectTransport{target: target}
	opts := resolve.Options{
		UserAgent:       "ecomap-test/1.0",
		FaviconEndpoint: "https://favicons.test/s2/favicons",
	}
	r := resolve.New(opts, &http.Client{Transport: rt}, nil)
	return New(r, pages, Options{}, nil), rt
}

func TestScraper_UsesPageCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/images/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("scraped-logo"))
	})
	s, _ := newScraper(t, mux, staticPage{html: `<img class="logo" src="/images/logo.png">`})

	res, err := s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://acme.com"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceScraped, res.Source)
	assert.Equal(t, []byte("scraped-logo"), res.Data)
}

func TestScraper_FallsThroughToCommonPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/static/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("probed"))
	})
	mux.HandleFunc("/", http.NotFound)
	s, rt := newScraper(t, mux, staticPage{err: errors.New("page down")})

	res, err := s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://acme.com"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceScraped, res.Source)
	assert.Equal(t, []byte("probed"), res.Data)
	assert.Contains(t, rt.requests(), "HEAD acme.com/static/logo.png")
}

func TestScraper_FaviconThenPlaceholder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/s2/favicons", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		w.Write([]byte("fav"))
	})
	mux.HandleFunc("/", http.NotFound)
	s, _ := newScraper(t, mux, staticPage{})

	res, err := s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://www.acme.com"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceFavicon, res.Source)

	bare := http.NewServeMux()
	bare.HandleFunc("/", http.NotFound)
	s, _ = newScraper(t, bare, staticPage{})
	res, err = s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://acme.com"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourcePlaceholder, res.Source)

	_, err = s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://acme.com"}, true)
	assert.ErrorIs(t, err, resolve.ErrSkipped)
}

func TestScraper_MultiTokenWebsite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/static/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("probed"))
	})
	mux.HandleFunc("/", http.NotFound)
	var fetched []string
	pages := pageFunc(func(ctx context.Context, pageURL string) (string, error) {
		fetched = append(fetched, pageURL)
		return "", nil
	})
	s, rt := newScraper(t, mux, pages)

	res, err := s.Resolve(context.Background(), org.Organization{Name: "Acme", Website: "https://acme.com or acme.bd"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourceScraped, res.Source)
	assert.Equal(t, []string{"https://acme.com/"}, fetched)
	assert.Contains(t, rt.requests(), "HEAD acme.com/static/logo.png")
}

func TestSiteURL(t *testing.T) {
	cases := map[string]string{
		"https://www.acme.com/about":  "https://www.acme.com/about",
		"https://acme.com or acme.bd": "https://acme.com/",
		"acme.io, beta.io":            "https://acme.io/",
	}
	for in, want := range cases {
		u := siteURL(in)
		require.NotNil(t, u, in)
		assert.Equal(t, want, u.String(), in)
	}
	assert.Nil(t, siteURL("not a domain"))
}

func TestScraper_LogoURLRowsUseResolverChain(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", http.NotFound)
	s, rt := newScraper(t, mux, staticPage{html: `<img class="logo" src="/logo.png">`})

	o := org.Organization{Name: "Acme", Website: "https://acme.com", LogoURL: "https://cdn.acme.com/broken.png"}
	res, err := s.Resolve(context.Background(), o, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourcePlaceholder, res.Source)
	assert.Equal(t, []string{"GET cdn.acme.com/broken.png"}, rt.requests())
}

func TestScraper_NoWebsite(t *testing.T) {
	s, rt := newScraper(t, http.NotFoundHandler(), staticPage{})
	res, err := s.Resolve(context.Background(), org.Organization{Name: "Acme"}, false)
	require.NoError(t, err)
	assert.Equal(t, resolve.SourcePlaceholder, res.Source)
	assert.Empty(t, rt.requests())
}

func TestScraper_DelayHonorsCancellation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", http.NotFound)
	server := httptest.NewServer(mux)
	defer server.Close()
	target, _ := url.Parse(server.URL)

	r := resolve.New(resolve.Options{}, &http.Client{Transport: &redirectTransport{target: target}}, nil)
	s := New(r, staticPage{}, Options{Delay: time.Hour}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Resolve(ctx, org.Organization{Name: "Acme", Website: "https://acme.com"}, false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPacer(t *testing.T) {
	p := &pacer{delay: 20 * time.Millisecond}
	start := time.Now()
	require.NoError(t, p.wait(context.Background()))
	require.NoError(t, p.wait(context.Background()))
	require.NoError(t, p.wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "ecomap-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("<html><img class=logo src=/l.png></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher("ecomap-test/1.0", time.Second)
	doc, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, doc, "l.png")

	_, err = f.Fetch(context.Background(), server.URL+"/gone")
	assert.Error(t, err)
}
