package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"paisa/internal/core"
	ports "paisa/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors transactions into a Google Spreadsheet. Each transaction
// occupies one row: ID, UserID, Date, Merchant, Amount, Category.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ports.TransactionWriter  = (*Client)(nil)
	_ ports.TransactionDeleter = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Transactions") and service account
// credentials via GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE,
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "sheet", os.Getenv("GOOGLE_SHEET_NAME"))
	return service, nil
}

func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	amount := tx.Amount.Float()
	row := []any{
		tx.ID,
		tx.UserID,
		tx.Date.Format("2006-01-02"),
		tx.Merchant,
		amount,
		string(tx.Category),
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// Delete removes the row whose first column holds transactionID.
// A missing row is not an error so deletes stay idempotent.
func (c *Client) Delete(ctx context.Context, transactionID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rowIdx, err := c.findRow(ctx, transactionID)
	if err != nil {
		return err
	}
	if rowIdx < 0 {
		slog.InfoContext(ctx, "Mirrored row not found, nothing to delete", "transaction_id", transactionID)
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIdx),
					EndIndex:   int64(rowIdx + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", rowIdx+1, c.sheetName, err)
	}
	return nil
}

// findRow returns the zero-based index of the row holding transactionID
// in column A, or -1 when absent.
func (c *Client) findRow(ctx context.Context, transactionID string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return -1, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == transactionID {
			return i, nil
		}
	}
	return -1, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets(properties(sheetId,title))").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, s := range meta.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}
