package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	ports "expensetracker/internal/sheets"
	"expensetracker/internal/storage"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Values are written RAW so dates stay text and amounts stay numbers.
const valueInputOption = "RAW"

var header = []any{"Amount", "Category", "Date"}

// Config selects the spreadsheet and the credentials used to reach it.
// A service account is used when one is configured; otherwise an OAuth
// client plus a saved token (see cmd/sheets-auth) act on behalf of a user.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	OAuthClientFile string
	OAuthTokenFile  string

	// endpoint overrides the Sheets API base URL in tests.
	endpoint string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *applog.Logger
}

// Ensure interface conformance
var (
	_ ports.ExpenseAppender = (*Client)(nil)
	_ ports.LedgerReplacer  = (*Client)(nil)
	_ storage.Store         = (*Client)(nil)
)

// NewFromConfig creates a Sheets client. Inline service account JSON takes
// precedence over the service account file, which takes precedence over OAuth.
func NewFromConfig(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Expenses"
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentSheets)

	var opts []goption.ClientOption
	credentialsJSON, err := loadCredentials(cfg)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
			"credentials_size", len(credentialsJSON),
			"scope", gsheet.SpreadsheetsScope)
		opts = append(opts,
			goption.WithCredentialsJSON(credentialsJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case errors.Is(err, errNoServiceAccount) && hasOAuth(cfg):
		ts, err := oauthTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "Creating Google Sheets service with OAuth token",
			"token_file", cfg.OAuthTokenFile,
			"scope", gsheet.SpreadsheetsScope)
		opts = append(opts, goption.WithTokenSource(ts))
	case errors.Is(err, errNoServiceAccount):
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_OAUTH_CLIENT_FILE with GOOGLE_OAUTH_TOKEN_FILE)")
	default:
		return nil, err
	}

	if cfg.endpoint != "" {
		opts = append(opts, goption.WithEndpoint(cfg.endpoint))
	}

	// The service and its token source outlive the startup context.
	svc, err := gsheet.NewService(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

var errNoServiceAccount = errors.New("no service account configured")

func loadCredentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errNoServiceAccount
	}
}

// SheetName returns the tab the client reads and writes.
func (c *Client) SheetName() string {
	return c.sheetName
}

// Append adds one record after the last filled row and returns the updated range.
func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:C", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{toRow(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	c.logger.DebugContext(ctx, "Appended expense row", "range", ref)
	return ref, nil
}

// Load reads every data row below the header. A sheet with no header at all
// is reported as storage.ErrNotFound.
func (c *Client) Load(ctx context.Context) ([]core.Expense, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:C", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, storage.ErrNotFound
	}

	out, skipped := parseRows(resp.Values[1:])
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped unreadable sheet rows", "skipped", skipped, "sheet", c.sheetName)
	}
	return out, nil
}

// Save replaces the sheet contents with the header followed by every record.
func (c *Client) Save(ctx context.Context, expenses []core.Expense) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	clearRng := fmt.Sprintf("%s!A:C", c.sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}

	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, header)
	for _, e := range expenses {
		rows = append(rows, toRow(e))
	}
	rng := fmt.Sprintf("%s!A1:C%d", c.sheetName, len(rows))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	c.logger.InfoContext(ctx, "Replaced sheet contents", applog.FieldCount, len(expenses), "sheet", c.sheetName)
	return nil
}
