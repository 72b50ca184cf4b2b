package sheets

import (
	"context"
	"fmt"
	"os"

	"bayline/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Client appends call-log rows to the shop's spreadsheet of record.
type Client struct {
	service       *gsheets.Service
	spreadsheetID string
	appendRange   string
}

func NewClient(ctx context.Context, credentialsFile, spreadsheetID, appendRange string) (*Client, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := gsheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &Client{service: srv, spreadsheetID: spreadsheetID, appendRange: appendRange}, nil
}

// AppendLogRow appends one row. Column layout matches the sheet's existing
// data: Log Date, Log Time, Summary, Appt Date, Appt Time, Phone, Email.
func (c *Client) AppendLogRow(ctx context.Context, entry models.LogEntry) error {
	valueRange := &gsheets.ValueRange{Values: [][]interface{}{RowValues(entry)}}

	_, err := c.service.Spreadsheets.Values.Append(c.spreadsheetID, c.appendRange, valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append log row: %w", err)
	}
	return nil
}

// RowValues renders a log entry as one sheet row.
func RowValues(entry models.LogEntry) []interface{} {
	return []interface{}{
		entry.Timestamp.Format("1/2/2006"),
		entry.Timestamp.Format("3:04:05 PM"),
		entry.Summary,
		entry.ApptDate,
		entry.ApptTime,
		entry.Phone,
		entry.Email,
	}
}
