// Package gsheet loads sign-up tables from Google Sheets or uploaded files.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

var (
	ErrInvalidReference = errors.New("invalid Google Sheet URL")
	ErrEmptySheet       = errors.New("sheet is empty")
)

var sheetIDPattern = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)

// ExtractID pulls the document id out of a sheet URL.
// A bare id (no slashes) is accepted as-is.
func ExtractID(ref string) (string, error) {
	if m := sheetIDPattern.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if bareID.MatchString(ref) {
		return ref, nil
	}
	return "", ErrInvalidReference
}

var bareID = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)

// Fetcher returns the rows (header first) of a sheet.
type Fetcher interface {
	Fetch(ctx context.Context, sheetID string) ([][]string, error)
}

// ===== CSV export (公開シート) =====

const DefaultExportURL = "https://docs.google.com/spreadsheets/d/%s/export?format=csv"

// CSVExportFetcher downloads the public CSV export of a sheet.
type CSVExportFetcher struct {
	Client *http.Client
	// URLFormat has one %s for the sheet id.
	URLFormat string
}

func NewCSVExportFetcher(timeout time.Duration) *CSVExportFetcher {
	return &CSVExportFetcher{
		Client:    &http.Client{Timeout: timeout},
		URLFormat: DefaultExportURL,
	}
}

func (f *CSVExportFetcher) Fetch(ctx context.Context, sheetID string) ([][]string, error) {
	url := fmt.Sprintf(f.URLFormat, sheetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", sheetID, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("fetch sheet %s: unexpected status %d", sheetID, res.StatusCode)
	}
	return ReadCSV(res.Body)
}
