package tenants

import (
	"fmt"
	"net/url"
	"strings"
)

// TenantDomainPlaceholder is substituted with the resolved tenant domain
// name in custom domain patterns, login URLs and redirect URIs.
const TenantDomainPlaceholder = "{tenant_domain}"

// Tenant is the outcome of tenant resolution for one request.
type Tenant struct {
	// DomainName is the tenant label, e.g. "devs4you".
	DomainName string `json:"domainName"`
	// CustomDomain is set when the tenant is served from its own custom
	// host, e.g. "login.devs4you.com".
	CustomDomain string `json:"customDomain,omitempty"`
	// Host is the identity provider host the browser is sent to.
	Host string `json:"host"`
}

// AuthOrigin returns the https origin of the tenant's identity provider
// host, e.g. "https://devs4you.auth.invotastic.com".
func (t Tenant) AuthOrigin() string {
	return (&url.URL{Scheme: "https", Host: t.Host}).String()
}

// Endpoint joins an absolute API path onto the tenant's origin.
func (t Tenant) Endpoint(path string) string {
	return t.AuthOrigin() + "/" + strings.TrimPrefix(path, "/")
}

// Substitute replaces the tenant placeholder in s with the tenant's
// domain name.
func (t Tenant) Substitute(s string) string {
	return strings.ReplaceAll(s, TenantDomainPlaceholder, t.DomainName)
}

func (t Tenant) String() string {
	if t.CustomDomain != "" {
		return fmt.Sprintf("%s (%s)", t.DomainName, t.CustomDomain)
	}
	return t.DomainName
}
