package google

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/core"

	"github.com/shopspring/decimal"
)

func TestNewFromConfig_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromConfig(context.Background(), Config{CredentialsJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
	if err.Error() != "missing spreadsheet ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromConfig_MissingCredentials(t *testing.T) {
	_, err := NewFromConfig(context.Background(), Config{SpreadsheetID: "test-id"})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "missing Google credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromConfig_UnreadableCredentialsFile(t *testing.T) {
	_, err := NewFromConfig(context.Background(), Config{
		SpreadsheetID:   "test-id",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
	if !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentialsPrefersInline(t *testing.T) {
	data, err := loadCredentials(Config{CredentialsJSON: ` {"type":"service_account"} `, CredentialsFile: "/non/existent"})
	if err != nil {
		t.Fatalf("loadCredentials: %v", err)
	}
	if string(data) != `{"type":"service_account"}` {
		t.Fatalf("unexpected credentials: %s", data)
	}
}

func TestClient_AppendValidatesFirst(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"} // svc is nil

	_, err := c.Append(context.Background(), core.Expense{Amount: decimal.NewFromInt(5), Category: "Food", Date: "2024-13-01"})
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got: %v", err)
	}

	_, err = c.Append(context.Background(), core.Expense{Amount: decimal.NewFromInt(5), Category: "Food", Date: "2024-01-01"})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got: %v", err)
	}
}

func TestClient_UninitializedService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Expenses"}
	if _, err := c.Load(context.Background()); err == nil {
		t.Fatal("Load: expected error")
	}
	if err := c.Save(context.Background(), nil); err == nil {
		t.Fatal("Save: expected error")
	}
}

func TestNewFromConfig_ServiceAccountOutlivesStartupContext(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	sheetsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Expenses!A1:C2","values":[["Amount","Category","Date"],["12.5","Food","2024-01-01"]]}`))
	}))
	defer sheetsSrv.Close()

	creds, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     "test",
		"private_key_id": "kid",
		"private_key":    string(keyPEM),
		"client_email":   "ledger@test.iam.gserviceaccount.com",
		"client_id":      "1",
		"token_uri":      tokenSrv.URL,
	})
	if err != nil {
		t.Fatalf("marshal credentials: %v", err)
	}

	startup, cancel := context.WithTimeout(context.Background(), time.Minute)
	c, err := NewFromConfig(startup, Config{
		SpreadsheetID:   "id",
		CredentialsJSON: string(creds),
		endpoint:        sheetsSrv.URL + "/",
	})
	cancel()
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}

	got, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load after startup context ended: %v", err)
	}
	if len(got) != 1 || got[0].Category != "Food" {
		t.Fatalf("Load = %v", got)
	}
}
