package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 30 * time.Second

const maxResponseSize = 1 << 20

var _ Provider = (*Client)(nil)

// Client is the HTTP implementation of Provider. It is safe for concurrent
// use; the underlying http.Client and its connection pool are shared.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       zerolog.Logger

	keySets     map[string]*oidc.RemoteKeySet
	keySetsLock sync.RWMutex
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for outbound call diagnostics.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client authenticating as clientID/clientSecret.
func NewClient(clientID, clientSecret string, opts ...ClientOption) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		logger:       log.Logger,
		keySets:      make(map[string]*oidc.RemoteKeySet),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) oauth2Config(origin, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   origin + oauthmodel.AuthorizePath,
			TokenURL:  origin + oauthmodel.TokenPath,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode implements Provider.
func (c *Client) ExchangeCode(ctx context.Context, origin, code, redirectURI, codeVerifier string) (*oauthmodel.TokenData, error) {
	if code == "" {
		return nil, errors.New("[idp ExchangeCode] authorization code is required")
	}
	c.logger.Debug().Str("endpoint", origin+oauthmodel.TokenPath).Msg("exchanging authorization code")

	tok, err := c.oauth2Config(origin, redirectURI).Exchange(c.withHTTPClient(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("[idp ExchangeCode] %w", tokenError(origin, err, false))
	}
	return tokenData(tok), nil
}

// RefreshToken implements Provider.
func (c *Client) RefreshToken(ctx context.Context, origin, refreshToken string) (*oauthmodel.TokenData, error) {
	if refreshToken == "" {
		return nil, errors.New("[idp RefreshToken] refresh token is required")
	}
	c.logger.Debug().Str("endpoint", origin+oauthmodel.TokenPath).Msg("refreshing tokens")

	ts := c.oauth2Config(origin, "").TokenSource(c.withHTTPClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("[idp RefreshToken] %w", tokenError(origin, err, true))
	}
	return tokenData(tok), nil
}

// UserInfo implements Provider.
func (c *Client) UserInfo(ctx context.Context, origin, accessToken string) (map[string]any, error) {
	endpoint := origin + oauthmodel.UserInfoPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("[idp UserInfo] failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("[idp UserInfo] %w", err)
	}

	claims := make(map[string]any)
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("[idp UserInfo] failed to decode response: %w", err)
	}
	return claims, nil
}

// RevokeRefreshToken implements Provider.
func (c *Client) RevokeRefreshToken(ctx context.Context, origin, refreshToken string) error {
	form := url.Values{}
	form.Set("token", refreshToken)
	form.Set("token_type_hint", "refresh_token")

	endpoint := origin + oauthmodel.RevokePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("[idp RevokeRefreshToken] failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("[idp RevokeRefreshToken] %w", err)
	}
	return nil
}

// VerifyIDToken implements Provider. The tenant origin is the expected
// issuer and its JWKS endpoint supplies the signing keys.
func (c *Client) VerifyIDToken(ctx context.Context, origin, rawIDToken string) (map[string]any, error) {
	verifier := oidc.NewVerifier(origin, c.keySetFor(origin), &oidc.Config{ClientID: c.clientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[idp VerifyIDToken] %w", err)
	}

	claims := make(map[string]any)
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[idp VerifyIDToken] failed to extract claims: %w", err)
	}
	return claims, nil
}

// keySetFor returns the cached remote key set for an origin. Key sets
// refresh themselves when an unknown key id is seen.
func (c *Client) keySetFor(origin string) *oidc.RemoteKeySet {
	c.keySetsLock.RLock()
	ks, exists := c.keySets[origin]
	c.keySetsLock.RUnlock()
	if exists {
		return ks
	}

	c.keySetsLock.Lock()
	defer c.keySetsLock.Unlock()
	if ks, exists := c.keySets[origin]; exists {
		return ks
	}
	ks = oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), c.httpClient), origin+oauthmodel.JWKSPath)
	c.keySets[origin] = ks
	return ks
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &oauthmodel.ProviderError{
			Endpoint:   req.URL.String(),
			StatusCode: resp.StatusCode,
			Code:       errorCode(body),
			Body:       string(body),
		}
	}
	return body, nil
}

// tokenError maps x/oauth2 failures onto the provider error kinds.
func tokenError(origin string, err error, refresh bool) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return err
	}
	if refresh && re.ErrorCode == "invalid_grant" {
		return &oauthmodel.InvalidGrantError{Description: re.ErrorDescription}
	}

	pe := &oauthmodel.ProviderError{
		Endpoint: origin + oauthmodel.TokenPath,
		Code:     re.ErrorCode,
		Body:     string(re.Body),
	}
	if re.Response != nil {
		pe.StatusCode = re.Response.StatusCode
	}
	return pe
}

func tokenData(tok *oauth2.Token) *oauthmodel.TokenData {
	td := &oauthmodel.TokenData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if td.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		td.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		td.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		td.Scope = scope
	}
	return td
}

func errorCode(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}
