package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

var (
	// ErrNotFound is returned when a spreadsheet title or a lookup key
	// does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrNoCredential indicates the service-account key was absent or
	// malformed, so no client could be built.
	ErrNoCredential = errors.New("sheets credential is not configured")
)

// Client wraps the Sheets and Drive APIs behind the handful of table
// operations the repositories need. The OAuth exchange happens once, in
// New; the resulting handle is safe for concurrent use and meant to live
// for the whole process.
type Client struct {
	sheets *gsheets.Service
	drive  *drive.Service

	mu  sync.Mutex
	ids map[string]string // spreadsheet title -> ID
}

// New exchanges a service-account key JSON for an authorized client with
// spreadsheet and drive access.
func New(ctx context.Context, credentialJSON string) (*Client, error) {
	if strings.TrimSpace(credentialJSON) == "" {
		return nil, ErrNoCredential
	}

	conf, err := google.JWTConfigFromJSON([]byte(credentialJSON), gsheets.SpreadsheetsScope, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	httpClient := conf.Client(ctx)

	sheetsSvc, err := gsheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("build sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("build drive service: %w", err)
	}

	return &Client{
		sheets: sheetsSvc,
		drive:  driveSvc,
		ids:    make(map[string]string),
	}, nil
}

// Open resolves a spreadsheet by its title. Title resolution needs a
// Drive search, so the title->ID mapping is cached for the process
// lifetime; spreadsheets are not renamed underneath a running server.
func (c *Client) Open(ctx context.Context, title string) (*Spreadsheet, error) {
	c.mu.Lock()
	id, ok := c.ids[title]
	c.mu.Unlock()
	if ok {
		return &Spreadsheet{client: c, id: id}, nil
	}

	query := fmt.Sprintf(
		"name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		strings.ReplaceAll(title, "'", `\'`),
	)
	list, err := c.drive.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search spreadsheet %q: %w", title, err)
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("spreadsheet %q: %w", title, ErrNotFound)
	}

	id = list.Files[0].Id
	c.mu.Lock()
	c.ids[title] = id
	c.mu.Unlock()

	return &Spreadsheet{client: c, id: id}, nil
}

// Spreadsheet is a handle on one resolved spreadsheet. All operations
// address a worksheet inside it by name.
type Spreadsheet struct {
	client *Client
	id     string
}

// Rows returns the raw cell grid of a worksheet, header row included.
// Every cell is stringified; trailing empty cells are padded so each row
// is at least as wide as the header.
func (s *Spreadsheet) Rows(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.client.sheets.Spreadsheets.Values.Get(s.id, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var width int
	if len(resp.Values) > 0 {
		width = len(resp.Values[0])
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, width)
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		for len(row) < width {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Records reads a worksheet whose first row is a header and returns the
// remaining rows as column->value maps, in sheet order.
func (s *Spreadsheet) Records(ctx context.Context, sheet string) ([]map[string]string, error) {
	rows, err := s.Rows(ctx, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// Append adds one row after the last populated row of the worksheet.
func (s *Spreadsheet) Append(ctx context.Context, sheet string, values []string) error {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	vr := &gsheets.ValueRange{Values: [][]any{cells}}

	_, err := s.client.sheets.Spreadsheets.Values.Append(s.id, sheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", sheet, err)
	}
	return nil
}

// FindRow scans the first column for an exact match and returns the
// 1-based row index, or ErrNotFound.
func (s *Spreadsheet) FindRow(ctx context.Context, sheet, key string) (int, error) {
	resp, err := s.client.sheets.Spreadsheets.Values.Get(s.id, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read key column of %q: %w", sheet, err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("key %q in sheet %q: %w", key, sheet, ErrNotFound)
}

// Cell reads a single cell addressed by 1-based row and column. An empty
// cell reads as "".
func (s *Spreadsheet) Cell(ctx context.Context, sheet string, row, col int) (string, error) {
	rangeRef := fmt.Sprintf("%s!%s%d", sheet, columnName(col), row)
	resp, err := s.client.sheets.Spreadsheets.Values.Get(s.id, rangeRef).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read cell %s: %w", rangeRef, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

// FirstSheet returns the title of the spreadsheet's first worksheet. The
// live book is addressed positionally, its worksheet name is not part of
// the contract.
func (s *Spreadsheet) FirstSheet(ctx context.Context) (string, error) {
	meta, err := s.client.sheets.Spreadsheets.Get(s.id).Fields("sheets(properties(title))").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 || meta.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet has no worksheets: %w", ErrNotFound)
	}
	return meta.Sheets[0].Properties.Title, nil
}

// UpdateCell overwrites a single cell addressed by 1-based row and column.
func (s *Spreadsheet) UpdateCell(ctx context.Context, sheet string, row, col int, value string) error {
	rangeRef := fmt.Sprintf("%s!%s%d", sheet, columnName(col), row)
	vr := &gsheets.ValueRange{Values: [][]any{{value}}}

	_, err := s.client.sheets.Spreadsheets.Values.Update(s.id, rangeRef, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update cell %s: %w", rangeRef, err)
	}
	return nil
}

// columnName converts a 1-based column index to its A1-notation letters.
func columnName(col int) string {
	var name []byte
	for col > 0 {
		col--
		name = append([]byte{byte('A' + col%26)}, name...)
		col /= 26
	}
	return string(name)
}
