package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledger/internal/core"
	"ledger/internal/view"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	calls    []recordedCall
	getReply string
	fail     bool
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	if f.fail {
		http.Error(w, `{"error":{"code":400,"message":"boom"}}`, http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodGet {
		io.WriteString(w, f.getReply)
		return
	}
	io.WriteString(w, `{}`)
}

func newTestClient(t *testing.T, api *fakeSheetsAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id", SheetName: "Ledger"}, nil)
}

func sampleSnapshot() view.Snapshot {
	date, _ := core.ParseDate("2024-01-02")
	salaryDate, _ := core.ParseDate("2024-01-01")
	txs := []core.Transaction{
		{ID: 1, Kind: core.Income, Description: "Salary", Amount: decimal.RequireFromString("1000"), Category: "Job", Date: salaryDate},
		{ID: 2, Kind: core.Expense, Description: "Lunch", Amount: decimal.RequireFromString("12.5"), Category: "Food", Date: date},
	}
	return view.Project(txs, core.AllCategories)
}

func TestExportWritesRowsSummaryAndChart(t *testing.T) {
	api := &fakeSheetsAPI{}
	c := newTestClient(t, api)

	require.NoError(t, c.Export(context.Background(), sampleSnapshot()))

	require.Len(t, api.calls, 2)
	assert.Equal(t, http.MethodPost, api.calls[0].method)
	assert.True(t, strings.HasSuffix(api.calls[0].path, ":clear"), api.calls[0].path)
	assert.Contains(t, api.calls[0].path, "/v4/spreadsheets/sheet-id/values/")
	assert.True(t, strings.HasSuffix(api.calls[1].path, "/values:batchUpdate"), api.calls[1].path)

	var req gsheet.BatchUpdateValuesRequest
	require.NoError(t, json.Unmarshal([]byte(api.calls[1].body), &req))
	assert.Equal(t, "USER_ENTERED", req.ValueInputOption)
	require.Len(t, req.Data, 3)
	assert.Equal(t, "'Ledger'!A1", req.Data[0].Range)
	assert.Equal(t, []any{"Date", "Description", "Category", "Type", "Amount"}, req.Data[0].Values[0])
	assert.Equal(t, []any{"2024-01-02", "Lunch", "Food", "expense", "-12.50"}, req.Data[0].Values[2])
	assert.Equal(t, []any{"Total", "987.50"}, req.Data[1].Values[1])
	assert.Equal(t, []any{"Food", "12.50"}, req.Data[2].Values[2])
}

func TestExportSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, &fakeSheetsAPI{fail: true})
	err := c.Export(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear")
}

func TestListReadsCategories(t *testing.T) {
	api := &fakeSheetsAPI{getReply: `{"values":[["Food"],["# comment"],[],["Job"],["Food"],[" "]]}`}
	c := newTestClient(t, api)

	cats, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Job"}, cats)
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	assert.Error(t, c.Export(context.Background(), view.Snapshot{}))
	_, err := c.List(context.Background())
	assert.Error(t, err)
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Config{SpreadsheetID: "id"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")

	_, err = New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/does/not/exist.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestA1QuotesSheetName(t *testing.T) {
	c := NewWithService(nil, Config{SpreadsheetID: "id", SheetName: "Bob's ledger"}, nil)
	assert.Equal(t, "'Bob''s ledger'!A:J", c.a1(clearColumns))
}
