package logokey

import (
	"net/url"
	"regexp"
	"strings"

	"ecomap/internal/org"
)

var (
	tokenSeparator = regexp.MustCompile(`(?i)\s+|,|;|\||\bor\b`)
	hostPattern    = regexp.MustCompile(`(?i)^[a-z0-9.-]+\.[a-z]{2,}$`)
	leadingDomain  = regexp.MustCompile(`(?i)^([a-z0-9.-]+)\b`)
	schemePrefix   = regexp.MustCompile(`(?i)^https?://`)
	wwwPrefix      = regexp.MustCompile(`(?i)^www\.`)
)

// Generic hosts carry assets for many unrelated organizations, so their
// hostname says nothing about which organization a row belongs to.
var (
	genericExact = []string{
		"facebook.com",
		"linkedin.com",
		"media.licdn.com",
		"drive.google.com",
		"dropbox.com",
	}
	genericSuffix = []string{
		".linkedin.com",
		".googleusercontent.com",
		".dropboxusercontent.com",
		".framer.ai",
	}
	genericPrefix = []string{
		"scontent.",
	}
)

// ExtractHost returns the host of the first domain-like token in website,
// lowercased and without a leading "www.". Tokens are split on whitespace,
// commas, semicolons, pipes and the word "or". Each token is parsed as a URL
// first; a token that does not parse to a domain falls back to its leading
// run of domain characters. It returns "" when no token yields a domain.
func ExtractHost(website string) string {
	for _, tok := range tokenSeparator.Split(strings.TrimSpace(website), -1) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		raw := tok
		if !schemePrefix.MatchString(raw) {
			raw = "https://" + raw
		}
		if u, err := url.Parse(raw); err == nil {
			host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
			if hostPattern.MatchString(host) {
				return host
			}
		}
		bare := wwwPrefix.ReplaceAllString(schemePrefix.ReplaceAllString(tok, ""), "")
		if m := leadingDomain.FindStringSubmatch(bare); m != nil && strings.Contains(m[1], ".") {
			return strings.ToLower(m[1])
		}
	}
	return ""
}

// IsGenericHost reports whether host is a social, CDN or file-sharing domain.
func IsGenericHost(host string) bool {
	h := strings.ToLower(host)
	for _, s := range genericExact {
		if h == s {
			return true
		}
	}
	for _, s := range genericSuffix {
		if strings.HasSuffix(h, s) {
			return true
		}
	}
	for _, s := range genericPrefix {
		if strings.HasPrefix(h, s) {
			return true
		}
	}
	return false
}

// DeriveBaseKey returns the website host, or the name slug when the host is
// missing or generic.
func DeriveBaseKey(o org.Organization) string {
	host := ExtractHost(o.Website)
	if host == "" || IsGenericHost(host) {
		return Slugify(o.Name)
	}
	return host
}
