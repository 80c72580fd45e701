package gsheet

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange: 先頭シートの全体
const DefaultRange = "A:ZZ"

// APIFetcher reads values through the Sheets API v4. Used when an API key
// is configured (private-but-shared sheets do not expose the CSV export).
type APIFetcher struct {
	svc   *sheets.Service
	Range string
}

func NewAPIFetcher(ctx context.Context, rng string, opts ...option.ClientOption) (*APIFetcher, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	if rng == "" {
		rng = DefaultRange
	}
	return &APIFetcher{svc: svc, Range: rng}, nil
}

func (f *APIFetcher) Fetch(ctx context.Context, sheetID string) ([][]string, error) {
	vr, err := f.svc.Spreadsheets.Values.Get(sheetID, f.Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", sheetID, err)
	}
	if len(vr.Values) == 0 {
		return nil, ErrEmptySheet
	}
	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			rows[i][j] = fmt.Sprint(v)
		}
	}
	return rows, nil
}
