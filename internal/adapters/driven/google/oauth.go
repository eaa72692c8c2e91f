package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"

	"github.com/onboardhq/syncgate/internal/core/domain"
	"github.com/onboardhq/syncgate/internal/core/ports/driven"
)

// Ensure OAuthClient implements the port.
var _ driven.OAuthClient = (*OAuthClient)(nil)

// Scopes requested on consent: calendar read/write and outbound mail send.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.send",
}

const revokeURL = "https://oauth2.googleapis.com/revoke"

// OAuthConfig holds the server-side OAuth application credentials from the
// Google developer console.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// OAuthClient performs the authorization-code and refresh exchanges against
// Google's authorization server.
type OAuthClient struct {
	cfg        *oauth2.Config
	httpClient *http.Client
	revokeURL  string
}

// NewOAuthClient validates the application credentials and builds the client.
// Missing credentials fail with domain.ErrNotConfigured.
func NewOAuthClient(cfg OAuthConfig) (*OAuthClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURI == "" {
		return nil, fmt.Errorf("%w: missing google client credentials", domain.ErrNotConfigured)
	}

	return &OAuthClient{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     googleauth.Endpoint,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		revokeURL:  revokeURL,
	}, nil
}

// AuthCodeURL builds the consent URL. Offline access plus a forced consent
// prompt guarantees Google returns a refresh token even when the user has
// granted the scopes before.
func (c *OAuthClient) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange swaps an authorization code for a token set.
func (c *OAuthClient) Exchange(ctx context.Context, code string) (*domain.TokenSet, error) {
	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExchange, err)
	}
	return tokenSet(tok), nil
}

// Refresh mints a new access token from a refresh token. The oauth2 token
// source copies the supplied refresh token into the result unless Google
// rotated it, so callers can persist the returned set as a whole.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenSet, error) {
	src := c.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExchange, err)
	}
	return tokenSet(tok), nil
}

// Revoke invalidates a token with Google's revocation endpoint.
func (c *OAuthClient) Revoke(ctx context.Context, accessToken string) error {
	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revoke failed with status %d", resp.StatusCode)
	}
	return nil
}

// tokenSet converts an oauth2 token into the domain shape, pulling granted
// scopes out of the token response when Google reports them.
func tokenSet(tok *oauth2.Token) *domain.TokenSet {
	ts := &domain.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok && scope != "" {
		ts.Scopes = strings.Fields(scope)
	}
	return ts
}
