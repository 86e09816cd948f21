package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-auth/auth"
	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestLogin_RedirectsToTenantAuthorize(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.login(t, testLoginEntryURL, &oauthmodel.LoginConfig{Scopes: []string{"openid", "roles"}})

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "https", location.Scheme)
	require.Equal(t, "devs4you.auth.invotastic.com", location.Host)
	require.Equal(t, oauthmodel.AuthorizePath, location.Path)

	q := location.Query()
	require.Equal(t, "openid roles", q.Get("scope"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testCallbackURL, q.Get("redirect_uri"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Empty(t, q.Get("login_hint"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	state := cookieState(t, cookie.Name)
	require.Equal(t, state, q.Get("state"))
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	require.Equal(t, "/auth/callback", cookie.Path)
	require.Equal(t, 600, cookie.MaxAge)

	loginState, err := f.service.OpenLoginStateCookie(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, state, loginState.State)
	require.Equal(t, testTenant, loginState.TenantDomainName)
	require.Equal(t, testCallbackURL, loginState.RedirectURI)
	require.Equal(t, oauth2.S256ChallengeFromVerifier(loginState.CodeVerifier), q.Get("code_challenge"))
	require.NotEmpty(t, loginState.FlowID)
	require.Equal(t, testStartTime.Add(10*time.Minute).UnixMilli(), loginState.ExpiresAt)
}

func TestLogin_DefaultScopes(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.login(t, testLoginEntryURL, nil)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "openid offline_access email", location.Query().Get("scope"))
}

func TestLogin_CustomStateRoundTrip(t *testing.T) {
	f := setupTestFixture(t)

	cookie, _ := f.loginCookie(t, &oauthmodel.LoginConfig{CustomState: map[string]any{"test": "abc"}})

	loginState, err := f.service.OpenLoginStateCookie(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"test": "abc"}, loginState.CustomState)
}

func TestLogin_ForwardsLoginHintAndReturnURL(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.login(t, testLoginEntryURL+"?login_hint=john.doe%40example.com&return_url=%2Finvoices%2F42", nil)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "john.doe@example.com", location.Query().Get("login_hint"))

	loginState, err := f.service.OpenLoginStateCookie(rec.Result().Cookies()[0].Value)
	require.NoError(t, err)
	require.Equal(t, "/invoices/42", loginState.ReturnURL)
}

func TestLogin_DropsOverlongReturnURL(t *testing.T) {
	f := setupTestFixture(t)

	long := "/" + strings.Repeat("x", oauthmodel.MaxReturnURLLength)
	rec := f.login(t, testLoginEntryURL+"?return_url="+url.QueryEscape(long), nil)

	loginState, err := f.service.OpenLoginStateCookie(rec.Result().Cookies()[0].Value)
	require.NoError(t, err)
	require.Empty(t, loginState.ReturnURL)
}

func TestLogin_ExtraParamsCannotOverrideProtectedParams(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.login(t, testLoginEntryURL, &oauthmodel.LoginConfig{ExtraParams: map[string]string{
		"prompt":                "login",
		"state":                 "attacker-state",
		"code_challenge":        "attacker-challenge",
		"code_challenge_method": "plain",
	}})

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	q := location.Query()
	require.Equal(t, "login", q.Get("prompt"))
	require.NotEqual(t, "attacker-state", q.Get("state"))
	require.NotEqual(t, "attacker-challenge", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
}

func TestLogin_FreshStatePerCall(t *testing.T) {
	f := setupTestFixture(t)

	first, firstState := f.loginCookie(t, nil)
	second, secondState := f.loginCookie(t, nil)
	require.NotEqual(t, firstState, secondState)

	a, err := f.service.OpenLoginStateCookie(first.Value)
	require.NoError(t, err)
	b, err := f.service.OpenLoginStateCookie(second.Value)
	require.NoError(t, err)
	require.NotEqual(t, a.CodeVerifier, b.CodeVerifier)
	require.NotEqual(t, a.FlowID, b.FlowID)
}

func TestLogin_CookieScopedToCallbackPath(t *testing.T) {
	f := setupTestFixture(t)
	jar := newBrowserJar(t)

	for i := 0; i < 2; i++ {
		req := jar.request(t, testLoginEntryURL)
		require.Empty(t, req.Cookies())
		rec := httptest.NewRecorder()
		require.NoError(t, f.service.Login(rec, req, nil))
		require.Equal(t, "/auth/callback", rec.Result().Cookies()[0].Path)
		jar.store(t, testLoginEntryURL, rec)
		f.now = f.now.Add(time.Second)
	}

	require.Len(t, jar.loginStates(t, testCallbackURL), 2)
}

func TestLogin_TenantFromQueryWithoutSubdomains(t *testing.T) {
	config := testConfig()
	config.UseTenantSubdomains = false
	config.RootDomain = ""
	config.LoginURL = "https://app.example.com/login"
	config.RedirectURI = "https://app.example.com/auth/callback"
	f := setupTestFixtureWithConfig(t, config)

	rec := f.login(t, "https://app.example.com/login?tenant_domain=acme", nil)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "acme.auth.invotastic.com", location.Host)
	require.Equal(t, "https://app.example.com/auth/callback", location.Query().Get("redirect_uri"))
}

func TestLogin_ExplicitTenantWins(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.login(t, testLoginEntryURL, &oauthmodel.LoginConfig{TenantDomainName: "acme"})

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "acme.auth.invotastic.com", location.Host)
}

func TestLogin_CustomDomain(t *testing.T) {
	config := testConfig()
	config.UseCustomDomains = true
	config.CustomDomainPattern = "{tenant_domain}.login.invotastic.com"
	f := setupTestFixtureWithConfig(t, config)

	rec := f.login(t, testLoginEntryURL, nil)
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "devs4you.login.invotastic.com", location.Host)

	rec = f.login(t, testLoginEntryURL, &oauthmodel.LoginConfig{TenantCustomDomain: "login.devs4you.com"})
	location, err = url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "login.devs4you.com", location.Host)

	loginState, err := f.service.OpenLoginStateCookie(rec.Result().Cookies()[0].Value)
	require.NoError(t, err)
	require.Equal(t, "login.devs4you.com", loginState.TenantCustomDomain)
}

func TestLogin_UnresolvedTenant(t *testing.T) {
	f := setupTestFixture(t)

	for _, target := range []string{
		"https://" + testRootDomain + "/login",
		"https://example.com/login",
		"https://a.b." + testRootDomain + "/login",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		err := f.service.Login(rec, req, nil)
		require.ErrorIs(t, err, oauthmodel.ErrConfiguration, target)
		require.Empty(t, rec.Result().Cookies(), target)
		require.Empty(t, rec.Header().Get("Location"), target)
	}
}

func TestLogin_OversizedStateIsRejected(t *testing.T) {
	f := setupTestFixture(t)

	req := httptest.NewRequest(http.MethodGet, testLoginEntryURL, nil)
	rec := httptest.NewRecorder()
	err := f.service.Login(rec, req, &oauthmodel.LoginConfig{CustomState: map[string]any{"blob": strings.Repeat("x", 4096)}})
	require.ErrorIs(t, err, oauthmodel.ErrConfiguration)
	require.Empty(t, rec.Result().Cookies())
}

func TestLogin_InsecureCookies(t *testing.T) {
	service, err := auth.NewAuthenticationService(testConfig(), auth.WithInsecureCookies())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, testLoginEntryURL, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, service.Login(rec, req, nil))
	require.False(t, rec.Result().Cookies()[0].Secure)
}
