package session

import (
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/screener/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestTokenRoundTrip(t *testing.T) {
	store := newTestStore(t)

	token, err := store.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "" {
		t.Errorf("expected empty token before login, got %q", token)
	}

	if err := store.SetToken("tok-1"); err != nil {
		t.Fatalf("failed to set token: %v", err)
	}
	token, err = store.Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("expected tok-1, got %q", token)
	}

	// Overwrite rather than duplicate.
	if err := store.SetToken("tok-2"); err != nil {
		t.Fatalf("failed to rotate token: %v", err)
	}
	token, _ = store.Token()
	if token != "tok-2" {
		t.Errorf("expected tok-2 after rotation, got %q", token)
	}

	if err := store.ClearToken(); err != nil {
		t.Fatalf("failed to clear token: %v", err)
	}
	token, _ = store.Token()
	if token != "" {
		t.Errorf("expected empty token after logout, got %q", token)
	}
}

func TestBaseURL(t *testing.T) {
	store := newTestStore(t)

	if err := store.SetBaseURL("https://review.example.com"); err != nil {
		t.Fatalf("failed to set base URL: %v", err)
	}
	url, err := store.BaseURL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://review.example.com" {
		t.Errorf("unexpected base URL %q", url)
	}

	if err := store.ClearBaseURL(); err != nil {
		t.Fatalf("failed to clear base URL: %v", err)
	}
	url, _ = store.BaseURL()
	if url != "" {
		t.Errorf("expected empty base URL after clear, got %q", url)
	}
}

func TestOAuthToken(t *testing.T) {
	t.Run("round trips refresh token and expiry", func(t *testing.T) {
		store := newTestStore(t)
		expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

		err := store.SetOAuthToken(&oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       expiry,
		})
		if err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		tok, err := store.OAuthToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "access-1" || tok.RefreshToken != "refresh-1" {
			t.Errorf("unexpected token %+v", tok)
		}
		if !tok.Expiry.Equal(expiry) {
			t.Errorf("expiry = %v, want %v", tok.Expiry, expiry)
		}
	})

	t.Run("nil when signed out", func(t *testing.T) {
		store := newTestStore(t)
		tok, err := store.OAuthToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != nil {
			t.Errorf("expected nil token, got %+v", tok)
		}
	})

	t.Run("logout clears the refresh token too", func(t *testing.T) {
		store := newTestStore(t)
		store.SetOAuthToken(&oauth2.Token{AccessToken: "a", RefreshToken: "r"})

		if err := store.ClearToken(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		tok, _ := store.OAuthToken()
		if tok != nil {
			t.Errorf("expected nil token after logout, got %+v", tok)
		}
	})
}

func TestPullAccessors(t *testing.T) {
	store := newTestStore(t)
	tokenFn := store.TokenFunc()
	urlFn := store.BaseURLFunc("https://default.example.com")

	if got := tokenFn(); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
	if got := urlFn(); got != "https://default.example.com" {
		t.Errorf("expected the fallback URL, got %q", got)
	}

	// A rotation mid-session is visible on the next call without
	// rebuilding the accessors.
	store.SetToken("tok-3")
	store.SetBaseURL("https://staging.example.com")

	if got := tokenFn(); got != "tok-3" {
		t.Errorf("expected tok-3, got %q", got)
	}
	if got := urlFn(); got != "https://staging.example.com" {
		t.Errorf("expected the stored URL, got %q", got)
	}
}
