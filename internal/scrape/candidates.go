package scrape

import (
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// rank orders candidate sources. Lower is tried first.
type rank int

const (
	rankLogoImage rank = iota
	rankBrandImage
	rankTouchIcon
	rankLogoLink
	rankOpenGraph
	rankTwitter
	rankIcon
)

type candidate struct {
	rank  rank
	order int
	url   string
}

// FindCandidates extracts likely logo image URLs from a page, best first.
// Relative references are resolved against pageURL.
func FindCandidates(doc string, pageURL string) []string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil
	}
	base, _ := url.Parse(pageURL)

	var found []candidate
	add := func(r rank, ref string) {
		ref = strings.TrimSpace(ref)
		if ref == "" || strings.HasPrefix(ref, "data:") {
			return
		}
		found = append(found, candidate{rank: r, order: len(found), url: ref})
	}

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				src := attr(n, "src")
				marks := strings.ToLower(attr(n, "class") + " " + attr(n, "id") + " " + attr(n, "alt"))
				switch {
				case strings.Contains(marks, "logo") || strings.Contains(strings.ToLower(src), "logo"):
					add(rankLogoImage, src)
				case strings.Contains(strings.ToLower(attr(n, "class")+" "+attr(n, "id")), "brand"):
					add(rankBrandImage, src)
				}
			case "link":
				rel := strings.ToLower(attr(n, "rel"))
				href := attr(n, "href")
				switch {
				case strings.Contains(rel, "apple-touch-icon"):
					add(rankTouchIcon, href)
				case strings.Contains(strings.ToLower(href), "logo"):
					add(rankLogoLink, href)
				case rel == "icon" || rel == "shortcut icon":
					add(rankIcon, href)
				}
			case "meta":
				switch {
				case strings.EqualFold(attr(n, "property"), "og:image"):
					add(rankOpenGraph, attr(n, "content"))
				case strings.EqualFold(attr(n, "name"), "twitter:image"):
					add(rankTwitter, attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(root)

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].rank != found[j].rank {
			return found[i].rank < found[j].rank
		}
		return found[i].order < found[j].order
	})

	seen := make(map[string]bool, len(found))
	out := make([]string, 0, len(found))
	for _, c := range found {
		abs := resolveRef(base, c.url)
		if abs == "" || seen[abs] || tinyFavicon(abs) {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// tinyFavicon drops favicon references that are unlikely to be large enough.
func tinyFavicon(u string) bool {
	l := strings.ToLower(u)
	return strings.Contains(l, "favicon") && !strings.Contains(l, "32") && !strings.Contains(l, "64")
}
