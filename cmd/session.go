package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/screener/internal/server"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SessionLogin runs the OAuth2 authorization code flow against the
// review backend and stores the resulting token.
func (r *Runner) SessionLogin(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	oc := r.config.OAuth
	if oc.ClientID == "" || oc.AuthURL == "" || oc.TokenURL == "" {
		return fmt.Errorf("%w: oauth section missing from config", shared.ErrMissingConfig)
	}

	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	oauthConfig := &oauth2.Config{
		ClientID:    oc.ClientID,
		RedirectURL: oc.RedirectURI,
		Scopes:      []string{"review:read", "review:decide", "review:purge"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  oc.AuthURL,
			TokenURL: oc.TokenURL,
		},
	}

	state := shared.GenerateID()
	handler := server.NewLoginHandler(oauthConfig, state)

	router := server.NewBasicRouter()
	router.Handler(handler)

	redirect, err := url.Parse(oc.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect_uri: %v", shared.ErrInvalidConfig, err)
	}

	srv := &http.Server{Addr: net.JoinHostPort("localhost", redirect.Port()), Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("callback server failed", "error", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	r.writePlain("Opening browser for sign in...\n")
	r.writePlain("If it does not open, visit:\n%s\n", authURL)

	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		if err := store.SetOAuthToken(result.Token); err != nil {
			return err
		}
		return r.writePlain("✓ Signed in\n")
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("%w: login timed out", shared.ErrAuthFailed)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SessionToken stores a bearer token directly, bypassing the OAuth flow.
func (r *Runner) SessionToken(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	token := cmd.StringArg("token")
	if token == "" {
		return fmt.Errorf("%w: token is required", shared.ErrMissingArgument)
	}

	store, err := r.sessionStore()
	if err != nil {
		return err
	}
	if err := store.SetToken(token); err != nil {
		return err
	}
	return r.writePlain("✓ token stored\n")
}

// SessionBackend stores the review backend base URL.
func (r *Runner) SessionBackend(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	rawURL := cmd.StringArg("url")
	if rawURL == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	store, err := r.sessionStore()
	if err != nil {
		return err
	}
	if err := store.SetBaseURL(rawURL); err != nil {
		return err
	}
	return r.writePlain("✓ backend set to %s\n", rawURL)
}

// SessionStatus reports the stored session and probes the backend policy
// endpoint to verify the credentials still work.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	store, err := r.sessionStore()
	if err != nil {
		return err
	}

	token, err := store.Token()
	if err != nil || token == "" {
		return r.writePlain("✗ not signed in\n")
	}

	baseURL, _ := store.BaseURL()
	if baseURL == "" {
		baseURL = r.config.API.BaseURL
	}
	r.writePlain("backend: %s\n", baseURL)

	svc, err := r.service()
	if err != nil {
		return err
	}
	if _, err := svc.FetchPolicy(ctx); err != nil {
		return r.writePlain("✗ stored credentials rejected: %s\n", workflow.MessageFor(err))
	}
	return r.writePlain("✓ signed in\n")
}

// SessionLogout clears stored credentials.
func (r *Runner) SessionLogout(ctx context.Context, cmd *cli.Command) error {
	r.applyConfig(cmd)

	store, err := r.sessionStore()
	if err != nil {
		return err
	}
	if err := store.ClearToken(); err != nil {
		return err
	}
	return r.writePlain("✓ signed out\n")
}
