package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const testOAuthClient = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestSaveAndReadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := SaveToken(path, want); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("token file mode = %v, want 0600", perm)
	}

	got, err := ReadToken(path)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken || !got.Expiry.Equal(want.Expiry) {
		t.Fatalf("token = %+v, want %+v", got, want)
	}
}

func TestOAuthConfig(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	if err := os.WriteFile(clientFile, []byte(testOAuthClient), 0600); err != nil {
		t.Fatalf("write client: %v", err)
	}

	cfg, err := OAuthConfig(clientFile)
	if err != nil {
		t.Fatalf("OAuthConfig: %v", err)
	}
	if cfg.ClientID != "id.apps.googleusercontent.com" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
	if len(cfg.Scopes) != 1 || !strings.Contains(cfg.Scopes[0], "spreadsheets") {
		t.Errorf("Scopes = %v", cfg.Scopes)
	}

	if _, err := OAuthConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing client file")
	}
}

func TestNewFromConfig_OAuth(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	if err := os.WriteFile(clientFile, []byte(testOAuthClient), 0600); err != nil {
		t.Fatalf("write client: %v", err)
	}

	// Half-configured OAuth is rejected before any file is read.
	_, err := NewFromConfig(context.Background(), Config{SpreadsheetID: "id", OAuthClientFile: clientFile})
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_OAUTH_TOKEN_FILE") {
		t.Fatalf("expected missing token file error, got %v", err)
	}

	_, err = NewFromConfig(context.Background(), Config{SpreadsheetID: "id", OAuthClientFile: clientFile, OAuthTokenFile: tokenFile})
	if err == nil || !strings.Contains(err.Error(), "read oauth token file") {
		t.Fatalf("expected unreadable token error, got %v", err)
	}

	if err := SaveToken(tokenFile, &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	c, err := NewFromConfig(context.Background(), Config{SpreadsheetID: "id", OAuthClientFile: clientFile, OAuthTokenFile: tokenFile})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if c.SheetName() != "Expenses" {
		t.Errorf("SheetName = %q", c.SheetName())
	}
}
