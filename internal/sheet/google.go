package sheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// GoogleSource reads a range of a spreadsheet through the Sheets v4 API
// using an API key.
type GoogleSource struct {
	SheetID string
	APIKey  string
	Range   string

	// Extra client options, e.g. option.WithEndpoint in tests.
	Options []option.ClientOption
}

// NewGoogleSource returns a source for the A:Z range of sheetID.
func NewGoogleSource(sheetID, apiKey, rng string) *GoogleSource {
	if rng == "" {
		rng = "A:Z"
	}
	return &GoogleSource{SheetID: sheetID, APIKey: apiKey, Range: rng}
}

// Rows fetches the values and stringifies every cell.
func (g *GoogleSource) Rows(ctx context.Context) ([][]string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(g.APIKey)}, g.Options...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(g.SheetID, g.Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values for sheet %s: %w", g.SheetID, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			if cell == nil {
				continue
			}
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
