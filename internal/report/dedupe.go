package report

import (
	"ecomap/internal/logokey"
	"ecomap/internal/org"
)

// CollapsedRow is a row hidden by base-key de-duplication.
type CollapsedRow struct {
	Name    string `json:"name"`
	Website string `json:"website"`
	BaseKey string `json:"baseKey"`
}

// BaseKeyAudit shows how the map UI collapses rows sharing a site. It is a
// separate notion from identity-key duplicates in Gaps.
type BaseKeyAudit struct {
	TotalRows         int            `json:"totalRows"`
	ConsideredRows    int            `json:"consideredRows"`
	UniqueAfterDedupe int            `json:"uniqueAfterDedupe"`
	CollapsedCount    int            `json:"collapsedCount"`
	Collapsed         []CollapsedRow `json:"collapsed"`
}

// AuditBaseKeys keeps the first row per base key and reports the rest. With
// tierOneOnly set only tier-one rows are considered.
func AuditBaseKeys(rows []org.Organization, tierOneOnly bool) BaseKeyAudit {
	audit := BaseKeyAudit{TotalRows: len(rows), Collapsed: []CollapsedRow{}}
	seen := make(map[string]bool)
	for _, o := range rows {
		if tierOneOnly && !o.IsTierOne() {
			continue
		}
		audit.ConsideredRows++
		key := logokey.DeriveBaseKey(o)
		if seen[key] {
			audit.Collapsed = append(audit.Collapsed, CollapsedRow{Name: o.Name, Website: o.Website, BaseKey: key})
			continue
		}
		seen[key] = true
		audit.UniqueAfterDedupe++
	}
	audit.CollapsedCount = len(audit.Collapsed)
	return audit
}
