// Package sheet reads the organization table from Google Sheets or from a
// local export of it.
package sheet

import (
	"context"
	"fmt"

	"ecomap/internal/org"
)

// Source returns the raw table, header row first.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// Load reads src and normalizes its rows.
func Load(ctx context.Context, src Source) ([]org.Organization, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return org.Normalize(rows), nil
}

// Static is an in-memory Source, mostly for tests and piping.
type Static [][]string

// Rows returns the table unchanged.
func (s Static) Rows(context.Context) ([][]string, error) {
	return s, nil
}
