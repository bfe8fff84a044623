package sheetsrepo

import (
	"context"

	"warroom-server/internal/sheets"
)

// tableBook is the slice of the spreadsheet handle the repositories use.
// *sheets.Spreadsheet satisfies it; tests substitute an in-memory book.
type tableBook interface {
	Records(ctx context.Context, sheet string) ([]map[string]string, error)
	Rows(ctx context.Context, sheet string) ([][]string, error)
	Append(ctx context.Context, sheet string, values []string) error
	FindRow(ctx context.Context, sheet, key string) (int, error)
	Cell(ctx context.Context, sheet string, row, col int) (string, error)
	UpdateCell(ctx context.Context, sheet string, row, col int, value string) error
	FirstSheet(ctx context.Context) (string, error)
}

// bookOpener resolves a spreadsheet title to a tableBook.
type bookOpener interface {
	OpenBook(ctx context.Context, title string) (tableBook, error)
}

// clientOpener adapts the concrete sheets client to bookOpener.
type clientOpener struct {
	client *sheets.Client
}

func (o clientOpener) OpenBook(ctx context.Context, title string) (tableBook, error) {
	return o.client.Open(ctx, title)
}
