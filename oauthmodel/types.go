package oauthmodel

// Identity provider API paths, relative to a tenant (or application) origin.
const (
	AuthorizePath = "/api/v1/oauth2/authorize"
	TokenPath     = "/api/v1/oauth2/token"
	UserInfoPath  = "/api/v1/oauth2/userinfo"
	RevokePath    = "/api/v1/oauth2/revoke"
	JWKSPath      = "/api/v1/oauth2/jwks"
	LogoutPath    = "/api/v1/logout"
)

// ResponseType represents the OAuth 2.0 response type requested at the
// authorize endpoint. Only the authorization code flow is used.
type ResponseType string

const CodeResponseType ResponseType = "code"

// CodeMethodType represents the PKCE challenge method.
type CodeMethodType string

const CodeMethodTypeS256 CodeMethodType = "S256"

// GrantType represents the grant used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges the callback code plus the PKCE
	// verifier for tokens.
	AuthorizationCodeGrant GrantType = "authorization_code"
	// RefreshTokenGrant exchanges a refresh token for new tokens.
	RefreshTokenGrant GrantType = "refresh_token"
)

// Query parameters read from incoming requests.
const (
	QueryReturnURL          = "return_url"
	QueryLoginHint          = "login_hint"
	QueryTenantDomain       = "tenant_domain"
	QueryTenantCustomDomain = "tenant_custom_domain"
	QueryState              = "state"
	QueryCode               = "code"
	QueryError              = "error"
	QueryErrorDescription   = "error_description"
)

// DefaultScopes are requested when neither the service nor the call
// overrides them.
var DefaultScopes = []string{"openid", "offline_access", "email"}

// MaxReturnURLLength bounds the return_url pass-through kept in the
// login-state cookie.
const MaxReturnURLLength = 450
