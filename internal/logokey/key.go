// Package logokey derives the identifiers used to name and de-duplicate logos.
//
// The identity key ("<slug>-<hash8>") names cache files and must be computed
// from exactly the fields produced by org.Normalize at every call site. The
// base key is a coarser, hostname-oriented value used only for display-level
// de-duplication.
package logokey

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"ecomap/internal/org"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and collapses everything outside [a-z0-9] to single
// hyphens. An empty result becomes "logo".
func Slugify(name string) string {
	s := nonSlugRun.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "logo"
	}
	return s
}

// ShortHash is a 32-bit djb2 variant (xor step) over UTF-16 code units,
// rendered as 8 zero-padded hex digits.
func ShortHash(s string) string {
	h := uint32(5381)
	for _, c := range utf16.Encode([]rune(s)) {
		h = ((h << 5) + h) ^ uint32(c)
	}
	return fmt.Sprintf("%08x", h)
}

// Fingerprint is the hashed input for an organization's identity key.
func Fingerprint(o org.Organization) string {
	return o.Name + "|" + o.Website + "|" + o.LogoURL
}

// DeriveKey returns the identity key for o.
func DeriveKey(o org.Organization) string {
	return Slugify(o.Name) + "-" + ShortHash(Fingerprint(o))
}
