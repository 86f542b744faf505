package org

import "strings"

type field int

const (
	fieldNone field = iota - 1
	fieldName
	fieldWebsite
	fieldLogoURL
	fieldCategory
	fieldTier
	fieldCount = int(fieldTier) + 1
)

// headerSynonyms is the complete set of recognized header spellings.
// Anything not listed here is ignored.
var headerSynonyms = map[string]field{
	"name":         fieldName,
	"organization": fieldName,
	"organisation": fieldName,
	"company":      fieldName,
	"org":          fieldName,

	"website": fieldWebsite,
	"url":     fieldWebsite,
	"link":    fieldWebsite,
	"site":    fieldWebsite,

	"logo_url":  fieldLogoURL,
	"logo":      fieldLogoURL,
	"logo_link": fieldLogoURL,
	"logo url":  fieldLogoURL,

	"category": fieldCategory,
	"type":     fieldCategory,
	"sector":   fieldCategory,
	"group":    fieldCategory,

	"tier": fieldTier,
}

func mapHeaders(headers []string) []field {
	columns := make([]field, len(headers))
	for i, h := range headers {
		f, ok := headerSynonyms[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			f = fieldNone
		}
		columns[i] = f
	}
	return columns
}
