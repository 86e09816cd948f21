package idpfake

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-tenant-auth/idp"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
)

var _ idp.Provider = (*FakeProvider)(nil)

// Call records one invocation of the fake.
type Call struct {
	Method       string
	Origin       string
	Code         string
	RedirectURI  string
	CodeVerifier string
	Token        string
}

// FakeProvider is an in-memory idp.Provider. Set the exported fields to
// script responses; every call is recorded.
type FakeProvider struct {
	Tokens        *oauthmodel.TokenData
	ExchangeErr   error
	Refreshed     *oauthmodel.TokenData
	RefreshErr    error
	Claims        map[string]any
	UserInfoErr   error
	RevokeErr     error
	IDTokenClaims map[string]any
	VerifyErr     error
	// BeforeRefresh, when set, runs at the start of RefreshToken.
	BeforeRefresh func()

	calls []Call
	lock  sync.Mutex
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Tokens: &oauthmodel.TokenData{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			IDToken:      "id-token",
			TokenType:    "Bearer",
			ExpiresIn:    1800,
			Scope:        "openid offline_access email",
		},
		Refreshed: &oauthmodel.TokenData{
			AccessToken:  "refreshed-access-token",
			RefreshToken: "refreshed-refresh-token",
			TokenType:    "Bearer",
			ExpiresIn:    1800,
		},
		Claims: map[string]any{"sub": "user-1", "email": "john.doe@example.com"},
	}
}

func (f *FakeProvider) record(c Call) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, c)
}

// Calls returns the recorded calls, optionally filtered by method name.
func (f *FakeProvider) Calls(method string) []Call {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := make([]Call, 0, len(f.calls))
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeProvider) ExchangeCode(_ context.Context, origin, code, redirectURI, codeVerifier string) (*oauthmodel.TokenData, error) {
	f.record(Call{Method: "ExchangeCode", Origin: origin, Code: code, RedirectURI: redirectURI, CodeVerifier: codeVerifier})
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	if f.Tokens == nil {
		return nil, errors.New("no tokens scripted")
	}
	tokens := *f.Tokens
	return &tokens, nil
}

func (f *FakeProvider) RefreshToken(_ context.Context, origin, refreshToken string) (*oauthmodel.TokenData, error) {
	if f.BeforeRefresh != nil {
		f.BeforeRefresh()
	}
	f.record(Call{Method: "RefreshToken", Origin: origin, Token: refreshToken})
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	tokens := *f.Refreshed
	return &tokens, nil
}

func (f *FakeProvider) UserInfo(_ context.Context, origin, accessToken string) (map[string]any, error) {
	f.record(Call{Method: "UserInfo", Origin: origin, Token: accessToken})
	if f.UserInfoErr != nil {
		return nil, f.UserInfoErr
	}
	return f.Claims, nil
}

func (f *FakeProvider) RevokeRefreshToken(_ context.Context, origin, refreshToken string) error {
	f.record(Call{Method: "RevokeRefreshToken", Origin: origin, Token: refreshToken})
	return f.RevokeErr
}

func (f *FakeProvider) VerifyIDToken(_ context.Context, origin, rawIDToken string) (map[string]any, error) {
	f.record(Call{Method: "VerifyIDToken", Origin: origin, Token: rawIDToken})
	if f.VerifyErr != nil {
		return nil, f.VerifyErr
	}
	return f.IDTokenClaims, nil
}
