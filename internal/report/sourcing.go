package report

import (
	"io"

	"ecomap/internal/org"
)

// NeedsSourcing returns rows with neither a logo_url nor a website, which no
// resolver can do anything with.
func NeedsSourcing(rows []org.Organization) []org.Organization {
	out := []org.Organization{}
	for _, o := range rows {
		if o.LogoURL == "" && o.Website == "" {
			out = append(out, o)
		}
	}
	return out
}

// WriteNeedsSourcingCSV writes name, category, website, logo_url.
func WriteNeedsSourcingCSV(w io.Writer, rows []org.Organization) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"name", "category", "website", "logo_url"})
	for _, o := range rows {
		records = append(records, []string{o.Name, o.Category, o.Website, o.LogoURL})
	}
	return writeCSV(w, records)
}
