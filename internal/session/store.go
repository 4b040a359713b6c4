// Package session persists the operator's session surface: the access
// token and the API base URL. Each value is individually readable,
// writable, and clearable, and the request engine consumes them through
// pull-based accessors so a token rotated mid-session takes effect on the
// very next request without reconfiguring the engine.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenExpiry  = "token_expiry"
	keyBaseURL      = "base_url"
)

// Store is the sqlite-backed session store. One row per value.
type Store struct {
	db *sql.DB
}

// NewStore prepares the session table on the given database.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create session table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM session WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session value %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO session (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write session value %s: %w", key, err)
	}
	return nil
}

func (s *Store) clear(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec("DELETE FROM session WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to clear session value %s: %w", key, err)
		}
	}
	return nil
}

// Token returns the stored access token, empty when signed out.
func (s *Store) Token() (string, error) { return s.get(keyAccessToken) }

// SetToken stores a bare access token.
func (s *Store) SetToken(token string) error { return s.set(keyAccessToken, token) }

// ClearToken signs the session out.
func (s *Store) ClearToken() error {
	return s.clear(keyAccessToken, keyRefreshToken, keyTokenExpiry)
}

// BaseURL returns the stored API base URL, empty when unset.
func (s *Store) BaseURL() (string, error) { return s.get(keyBaseURL) }

// SetBaseURL stores the API base URL.
func (s *Store) SetBaseURL(url string) error { return s.set(keyBaseURL, url) }

// ClearBaseURL removes the stored base URL so the configured default
// applies again.
func (s *Store) ClearBaseURL() error { return s.clear(keyBaseURL) }

// SetOAuthToken persists a token obtained from the authorization code
// flow, including the refresh token and expiry when present.
func (s *Store) SetOAuthToken(tok *oauth2.Token) error {
	if err := s.set(keyAccessToken, tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		if err := s.set(keyRefreshToken, tok.RefreshToken); err != nil {
			return err
		}
	}
	if !tok.Expiry.IsZero() {
		if err := s.set(keyTokenExpiry, tok.Expiry.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}

// OAuthToken reconstructs the stored token. Returns nil when no token is
// stored.
func (s *Store) OAuthToken() (*oauth2.Token, error) {
	access, err := s.get(keyAccessToken)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, nil
	}

	tok := &oauth2.Token{AccessToken: access}
	if refresh, err := s.get(keyRefreshToken); err == nil && refresh != "" {
		tok.RefreshToken = refresh
	}
	if expiry, err := s.get(keyTokenExpiry); err == nil && expiry != "" {
		if t, perr := time.Parse(time.RFC3339, expiry); perr == nil {
			tok.Expiry = t
		}
	}
	return tok, nil
}

// TokenFunc returns a pull-based accessor for the request engine. Read
// errors yield an empty token; the backend's 401 then drives the auth
// side channel.
func (s *Store) TokenFunc() func() string {
	return func() string {
		token, err := s.Token()
		if err != nil {
			return ""
		}
		return token
	}
}

// BaseURLFunc returns a pull-based accessor falling back to the
// configured default when no URL has been stored.
func (s *Store) BaseURLFunc(fallback string) func() string {
	return func() string {
		url, err := s.BaseURL()
		if err != nil || url == "" {
			return fallback
		}
		return url
	}
}
