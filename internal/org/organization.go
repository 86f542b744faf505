// Package org turns raw spreadsheet rows into Organization records.
package org

import (
	"strings"
)

// Organization is one sheet row after normalization.
type Organization struct {
	Name     string `json:"name"`
	Website  string `json:"website"`
	LogoURL  string `json:"logo_url"`
	Category string `json:"category"`
	Tier     string `json:"tier"`
}

// HasLogoURL reports whether the row names an explicit image source.
func (o Organization) HasLogoURL() bool {
	return o.LogoURL != ""
}

// IsTierOne reports whether the tier column marks the row as tier one.
func (o Organization) IsTierOne() bool {
	switch strings.ToLower(strings.TrimSpace(o.Tier)) {
	case "1", "tier 1", "tier1", "t1":
		return true
	}
	return false
}

// Normalize maps a table whose first row is headers into Organizations.
// Rows keep their sheet order; rows without a name are dropped.
func Normalize(rows [][]string) []Organization {
	if len(rows) == 0 {
		return []Organization{}
	}

	columns := mapHeaders(rows[0])
	out := make([]Organization, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var values [fieldCount]string
		for i, f := range columns {
			if f == fieldNone || values[f] != "" {
				continue
			}
			if i >= len(row) {
				continue
			}
			values[f] = strings.TrimSpace(row[i])
		}

		o := Organization{
			Name:     values[fieldName],
			Website:  NormalizeWebsite(values[fieldWebsite]),
			LogoURL:  values[fieldLogoURL],
			Category: values[fieldCategory],
			Tier:     values[fieldTier],
		}
		if o.Name == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// NormalizeWebsite returns the canonical website form that every later stage
// hashes and fetches: trimmed, with https:// prepended when no scheme is given.
func NormalizeWebsite(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return "https://" + s
}
