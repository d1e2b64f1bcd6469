// Package sheets talks to a Google-Sheets-style values API over HTTP. A
// Client is scoped to one spreadsheet; Worksheet adapts a single sheet inside
// it to the types.Store interface.
//
// Row deletes are structural requests and need the worksheet's numeric grid
// id. When the grid id is unknown the worksheet reports deletes as
// unsupported, which callers handle by rewriting the whole sheet.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/med-x/opsportal/pkg/types"
)

// DefaultBaseURL is the production endpoint for the v4 values API.
const DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Client issues requests against one spreadsheet.
type Client struct {
	http          *http.Client
	baseURL       string
	spreadsheetID string
	token         string
}

// New builds a client for the given spreadsheet. An empty baseURL selects
// the production endpoint.
func New(cfg types.SheetsConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:          &http.Client{Timeout: 30 * time.Second},
		baseURL:       strings.TrimRight(base, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		token:         cfg.Token,
	}
}

// Worksheet returns a Store view over one sheet of the spreadsheet. gid is
// the sheet's numeric grid id; pass a negative value when it is unknown,
// which disables structural row deletes.
func (c *Client) Worksheet(name string, gid int) *Worksheet {
	return &Worksheet{client: c, name: name, gid: gid}
}

// valueRange mirrors the API's ValueRange body.
type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values"`
}

// do sends req with auth headers and decodes a JSON response into out when
// out is non-nil. Non-2xx statuses become errors carrying the body.
func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheets: %s %s: %s: %s",
			req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// Worksheet adapts one sheet to types.Store. Rows are addressed 1-based,
// counting the header row, matching the remote API.
type Worksheet struct {
	client *Client
	name   string
	gid    int
}

// Compile-time interface check.
var _ types.Store = (*Worksheet)(nil)

// rangePath builds the values endpoint path for an A1 range, with optional
// suffix like ":append" and query values.
func (w *Worksheet) rangePath(a1 string, suffix string, query url.Values) string {
	rng := w.name
	if a1 != "" {
		rng += "!" + a1
	}
	p := "/" + url.PathEscape(w.client.spreadsheetID) + "/values/" + url.PathEscape(rng) + suffix
	if len(query) > 0 {
		p += "?" + query.Encode()
	}
	return p
}

// Header reads row 1.
func (w *Worksheet) Header(ctx context.Context) ([]string, error) {
	var vr valueRange
	if err := w.client.get(ctx, w.rangePath("1:1", "", nil), &vr); err != nil {
		return nil, err
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	return vr.Values[0], nil
}

// ReadAll fetches the whole sheet and keys every data row by the header.
// Short rows read as empty strings for missing trailing cells.
func (w *Worksheet) ReadAll(ctx context.Context) ([]types.Record, error) {
	var vr valueRange
	if err := w.client.get(ctx, w.rangePath("", "", nil), &vr); err != nil {
		return nil, err
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	header := vr.Values[0]
	records := make([]types.Record, 0, len(vr.Values)-1)
	for _, row := range vr.Values[1:] {
		rec := make(types.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Append adds one row after the last populated row.
func (w *Worksheet) Append(ctx context.Context, values []string) error {
	q := url.Values{"valueInputOption": {"USER_ENTERED"}}
	body := valueRange{Values: [][]string{values}}
	return w.client.send(ctx, http.MethodPost, w.rangePath("", ":append", q), body, nil)
}

// UpdateCell writes one cell. row counts from 1 including the header; col is
// the 1-based column index.
func (w *Worksheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if row < 1 || col < 1 {
		return types.ErrRowOutOfRange
	}
	a1 := fmt.Sprintf("%s%d", columnLetter(col), row)
	q := url.Values{"valueInputOption": {"USER_ENTERED"}}
	body := valueRange{Values: [][]string{{value}}}
	return w.client.send(ctx, http.MethodPut, w.rangePath(a1, "", q), body, nil)
}

// batchUpdate request bodies for structural changes.
type dimensionRange struct {
	SheetID    int    `json:"sheetId"`
	Dimension  string `json:"dimension"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

type deleteDimension struct {
	Range dimensionRange `json:"range"`
}

type batchRequest struct {
	DeleteDimension *deleteDimension `json:"deleteDimension,omitempty"`
}

type batchUpdateBody struct {
	Requests []batchRequest `json:"requests"`
}

// DeleteRow removes one row structurally. Requires the grid id; returns
// ErrDeleteUnsupported when it is unknown so callers can fall back to a
// rewrite.
func (w *Worksheet) DeleteRow(ctx context.Context, row int) error {
	if w.gid < 0 {
		return types.ErrDeleteUnsupported
	}
	if row < 1 {
		return types.ErrRowOutOfRange
	}
	body := batchUpdateBody{Requests: []batchRequest{{
		DeleteDimension: &deleteDimension{Range: dimensionRange{
			SheetID:    w.gid,
			Dimension:  "ROWS",
			StartIndex: row - 1,
			EndIndex:   row,
		}},
	}}}
	path := "/" + url.PathEscape(w.client.spreadsheetID) + ":batchUpdate"
	return w.client.send(ctx, http.MethodPost, path, body, nil)
}

// Rewrite clears the sheet and writes header plus rows starting at A1.
func (w *Worksheet) Rewrite(ctx context.Context, header []string, rows [][]string) error {
	if err := w.client.send(ctx, http.MethodPost, w.rangePath("", ":clear", nil), struct{}{}, nil); err != nil {
		return err
	}
	values := make([][]string, 0, len(rows)+1)
	values = append(values, header)
	values = append(values, rows...)
	q := url.Values{"valueInputOption": {"USER_ENTERED"}}
	body := valueRange{Values: values}
	return w.client.send(ctx, http.MethodPut, w.rangePath("A1", "", q), body, nil)
}

// columnLetter converts a 1-based column index to its A1 letter form
// (1 -> A, 26 -> Z, 27 -> AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}
