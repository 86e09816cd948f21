package tenants

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrUnresolved is returned when no tenant can be derived from the request
// and configuration. It is a configuration error, not a security error.
var ErrUnresolved = errors.New("tenant could not be resolved")

// Rules are the process-wide tenant resolution settings.
type Rules struct {
	// RootDomain is the application's own domain under which tenant
	// subdomains live, e.g. "business.invotastic.com".
	RootDomain string
	// ApplicationDomain is the identity provider's application domain,
	// e.g. "auth.invotastic.com".
	ApplicationDomain string
	// UseTenantSubdomains takes the tenant from the request host.
	UseTenantSubdomains bool
	// UseCustomDomains enables tenant-specific identity provider hosts.
	UseCustomDomains bool
	// CustomDomainPattern is used for custom domains when no explicit
	// custom domain is given, e.g. "{tenant_domain}.login.invotastic.com".
	CustomDomainPattern string
	// DefaultTenantDomainName is used when nothing else names a tenant.
	DefaultTenantDomainName string
}

// Hints carry per-call tenant identifiers: explicit caller configuration or
// query parameters. Empty fields are ignored.
type Hints struct {
	TenantDomainName   string
	TenantCustomDomain string
}

// Resolve derives the tenant and its identity provider host. The order is
// explicit hint, then the request host subdomain (when UseTenantSubdomains
// is set), then the configured default.
func Resolve(host string, rules Rules, hints Hints) (Tenant, error) {
	name := strings.ToLower(strings.TrimSpace(hints.TenantDomainName))

	if name == "" && rules.UseTenantSubdomains {
		sub, err := SubdomainOf(host, rules.RootDomain)
		if err != nil {
			return Tenant{}, err
		}
		name = sub
	}

	if name == "" {
		name = strings.ToLower(rules.DefaultTenantDomainName)
	}
	if name == "" {
		return Tenant{}, fmt.Errorf("[tenants Resolve] no tenant domain name for host %q: %w", host, ErrUnresolved)
	}
	if !isDNSLabel(name) {
		return Tenant{}, fmt.Errorf("[tenants Resolve] invalid tenant domain name %q: %w", name, ErrUnresolved)
	}

	t := Tenant{DomainName: name}
	switch {
	case rules.UseCustomDomains && hints.TenantCustomDomain != "":
		t.CustomDomain = strings.ToLower(stripPort(hints.TenantCustomDomain))
		t.Host = t.CustomDomain
	case rules.UseCustomDomains && rules.CustomDomainPattern != "":
		t.CustomDomain = strings.ToLower(t.Substitute(rules.CustomDomainPattern))
		t.Host = t.CustomDomain
	default:
		if rules.ApplicationDomain == "" {
			return Tenant{}, fmt.Errorf("[tenants Resolve] application domain is not configured: %w", ErrUnresolved)
		}
		t.Host = name + "." + strings.ToLower(rules.ApplicationDomain)
	}

	if _, err := url.Parse(t.AuthOrigin()); err != nil || !isHostname(t.Host) {
		return Tenant{}, fmt.Errorf("[tenants Resolve] invalid identity provider host %q: %w", t.Host, ErrUnresolved)
	}
	return t, nil
}

// SubdomainOf returns the single DNS label that host carries in front of
// rootDomain. The host's port is ignored.
func SubdomainOf(host, rootDomain string) (string, error) {
	if rootDomain == "" {
		return "", fmt.Errorf("[tenants SubdomainOf] root domain is not configured: %w", ErrUnresolved)
	}
	h := strings.ToLower(stripPort(host))
	suffix := "." + strings.ToLower(strings.TrimPrefix(rootDomain, "."))

	if !strings.HasSuffix(h, suffix) {
		return "", fmt.Errorf("[tenants SubdomainOf] host %q is not under root domain %q: %w", h, rootDomain, ErrUnresolved)
	}
	label := strings.TrimSuffix(h, suffix)
	if label == "" || strings.Contains(label, ".") {
		return "", fmt.Errorf("[tenants SubdomainOf] host %q does not carry a single tenant label: %w", h, ErrUnresolved)
	}
	return label, nil
}

// ApplicationOrigin returns the identity provider's application-level
// origin, used when no tenant is in scope.
func ApplicationOrigin(rules Rules) string {
	return (&url.URL{Scheme: "https", Host: strings.ToLower(rules.ApplicationDomain)}).String()
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isDNSLabel(s string) bool {
	if len(s) == 0 || len(s) > 63 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' && i > 0 && i < len(s)-1:
		default:
			return false
		}
	}
	return true
}

func isHostname(h string) bool {
	if h == "" || len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if !isDNSLabel(label) {
			return false
		}
	}
	return true
}
