//go:build integration

package google

import (
	"context"
	"os"
	"testing"

	"expensetracker/internal/core"

	"github.com/shopspring/decimal"
)

// Integration tests require a real spreadsheet and service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_SaveLoadAppend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	credsJSON := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	credsFile := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if credsJSON == "" && credsFile == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}
	sheetName := os.Getenv("GOOGLE_TEST_SHEET_NAME")
	if sheetName == "" {
		t.Skip("GOOGLE_TEST_SHEET_NAME not set; refusing to overwrite a real sheet")
	}

	ctx := context.Background()
	client, err := NewFromConfig(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       sheetName,
		CredentialsJSON: credsJSON,
		CredentialsFile: credsFile,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	seed := []core.Expense{
		{Amount: decimal.RequireFromString("12.50"), Category: "Food", Date: "2024-01-01"},
		{Amount: decimal.RequireFromString("3"), Category: "Transport", Date: "2024-01-02"},
	}
	if err := client.Save(ctx, seed); err != nil {
		t.Fatalf("Save: %v", err)
	}

	extra := core.Expense{Amount: decimal.RequireFromString("7.25"), Category: "Books", Date: "2024-02-10"}
	ref, err := client.Append(ctx, extra)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	t.Logf("appended at %s", ref)

	got, err := client.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := append(seed, extra)
	if len(got) != len(want) {
		t.Fatalf("Load returned %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}
