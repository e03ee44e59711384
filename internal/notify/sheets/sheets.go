// Package sheets appends one spreadsheet row per lead through the Google
// Sheets API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/parisxmas/leadsite/internal/models"
	"github.com/parisxmas/leadsite/internal/notify"
)

type Sink struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	rangeA1       string
}

// New builds a sink authenticated with a service-account credentials file.
func New(ctx context.Context, spreadsheetID, rangeA1, credentialsFile string) (*Sink, error) {
	return NewWithOptions(ctx, spreadsheetID, rangeA1,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope))
}

func NewWithOptions(ctx context.Context, spreadsheetID, rangeA1 string, opts ...option.ClientOption) (*Sink, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Sink{values: svc.Spreadsheets.Values, spreadsheetID: spreadsheetID, rangeA1: rangeA1}, nil
}

func (s *Sink) Name() string { return "sheets" }

func (s *Sink) Deliver(ctx context.Context, lead models.Lead) error {
	row := lead.Row()
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	vr := &gsheets.ValueRange{Values: [][]interface{}{cells}}

	_, err := s.values.Append(s.spreadsheetID, s.rangeA1, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err == nil {
		return nil
	}
	err = fmt.Errorf("sheets: append row: %w", err)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code/100 == 4 && gerr.Code != http.StatusTooManyRequests {
		return notify.Permanent(err)
	}
	return err
}
