package scrape

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

const samplePage = `<!doctype html>
<html>
<head>
  <link rel="icon" href="/favicon.ico">
  <link rel="icon" href="/favicon-32x32.png">
  <link rel="apple-touch-icon" href="/apple-touch-icon.png">
  <link rel="preload" href="/assets/logo-wide.svg">
  <meta property="og:image" content="https://cdn.acme.com/og.jpg">
  <meta name="twitter:image" content="https://cdn.acme.com/tw.jpg">
</head>
<body>
  <header>
    <img class="navbar-brand" src="brand.png">
    <img alt="Acme logo" src="//cdn.acme.com/header.png">
    <img src="/images/logo.png">
    <img src="/images/logo.png">
    <img src="data:image/png;base64,AAAA" class="logo">
  </header>
</body>
</html>`

func TestFindCandidates_RankingAndResolution(t *testing.T) {
	got := FindCandidates(samplePage, "https://acme.com/about/")
	want := []string{
		"https://cdn.acme.com/header.png",
		"https://acme.com/images/logo.png",
		"https://acme.com/about/brand.png",
		"https://acme.com/apple-touch-icon.png",
		"https://acme.com/assets/logo-wide.svg",
		"https://cdn.acme.com/og.jpg",
		"https://cdn.acme.com/tw.jpg",
		"https://acme.com/favicon-32x32.png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindCandidates mismatch (-want +got):\n%s", diff)
	}
}

func TestFindCandidates_Empty(t *testing.T) {
	assert.Empty(t, FindCandidates("<html><body><p>hi</p></body></html>", "https://acme.com"))
	assert.Empty(t, FindCandidates("", "https://acme.com"))
}

func TestFindCandidates_SkipsNonHTTP(t *testing.T) {
	page := `<img class="logo" src="javascript:alert(1)"><img class="logo" src="ftp://x.com/logo.png">`
	assert.Empty(t, FindCandidates(page, "https://acme.com"))
}

func TestTinyFavicon(t *testing.T) {
	assert.True(t, tinyFavicon("https://a.com/favicon.ico"))
	assert.False(t, tinyFavicon("https://a.com/favicon-64.png"))
	assert.False(t, tinyFavicon("https://a.com/logo.png"))
}
