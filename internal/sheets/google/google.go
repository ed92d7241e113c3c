package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/log"
	ports "ledger/internal/sheets"
	"ledger/internal/view"
)

// Ensure interface conformance
var (
	_ ports.SnapshotExporter = (*Client)(nil)
	_ ports.TaxonomyReader   = (*Client)(nil)
)

// Header is the first row of the transactions block.
var Header = []any{"Date", "Description", "Category", "Type", "Amount"}

// Layout of the exported sheet: transactions in A:E, summary and chart
// side by side to the right.
const (
	clearColumns  = "A:J"
	rowsAnchor    = "A1"
	summaryAnchor = "G1"
	chartAnchor   = "G6"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CategoriesSheet string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// OAuth, when it carries client credentials, is used instead of the
	// service account.
	OAuth OAuthConfig
}

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	sheetName       string
	categoriesSheet string
	logger          *log.Logger
}

// New creates a Sheets client acting as an OAuth user when cfg.OAuth is
// set, otherwise as a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	auth, err := authOption(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, auth, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}
	cats := strings.TrimSpace(cfg.CategoriesSheet)
	if cats == "" {
		cats = "Categories"
	}
	return &Client{
		svc:             svc,
		spreadsheetID:   cfg.SpreadsheetID,
		sheetName:       sheet,
		categoriesSheet: cats,
		logger:          logger.WithComponent(log.ComponentSheets),
	}
}

func authOption(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	if cfg.OAuth.Enabled() {
		ts, err := cfg.OAuth.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		return goption.WithTokenSource(ts), nil
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	return goption.WithCredentialsJSON(creds), nil
}

func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export clears the ledger sheet and writes rows, summary and chart data
// in a single batch update.
func (c *Client) Export(ctx context.Context, snap view.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := c.a1(clearColumns)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*gsheet.ValueRange{
			{Range: c.a1(rowsAnchor), Values: rowValues(snap.Rows)},
			{Range: c.a1(summaryAnchor), Values: summaryValues(snap.Summary)},
			{Range: c.a1(chartAnchor), Values: chartValues(snap.Chart)},
		},
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}

	c.logger.InfoContext(ctx, "Snapshot exported",
		log.FieldOperation, log.OpExport,
		log.FieldCount, len(snap.Rows),
		log.FieldFilter, snap.Filter,
		"sheet", c.sheetName)
	return nil
}

// List reads the category column of the categories sheet, skipping blanks,
// comments and duplicates.
func (c *Client) List(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:A", c.categoriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return firstColumn(resp.Values), nil
}

func (c *Client) a1(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), cells)
}

func rowValues(rows []view.DisplayRow) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, Header)
	for _, r := range rows {
		out = append(out, []any{r.ISODate, r.Description, r.Category, r.Kind.String(), r.Signed})
	}
	return out
}

func summaryValues(s view.SummaryDisplay) [][]any {
	return [][]any{
		{"Summary", ""},
		{"Total", s.Total},
		{"Income", s.Income},
		{"Expense", s.Expense},
	}
}

func chartValues(ds view.ChartDataset) [][]any {
	out := [][]any{{ds.Title, ""}, {"Category", "Amount"}}
	values := ds.Values()
	for i, label := range ds.Labels() {
		out = append(out, []any{label, values[i]})
	}
	return out
}

func firstColumn(values [][]any) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
