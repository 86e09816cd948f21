package tenants_test

import (
	"net/url"
	"strings"
	"testing"

	"github.com/jrsteele09/go-tenant-auth/tenants"
	"github.com/stretchr/testify/require"
)

func invotasticRules() tenants.Rules {
	return tenants.Rules{
		RootDomain:          "business.invotastic.com",
		ApplicationDomain:   "auth.invotastic.com",
		UseTenantSubdomains: true,
	}
}

func TestResolve_Subdomain(t *testing.T) {
	tenant, err := tenants.Resolve("devs4you.business.invotastic.com", invotasticRules(), tenants.Hints{})
	require.NoError(t, err)
	require.Equal(t, "devs4you", tenant.DomainName)
	require.Equal(t, "https://devs4you.auth.invotastic.com", tenant.AuthOrigin())
	require.Equal(t, "https://devs4you.auth.invotastic.com/api/v1/logout", tenant.Endpoint("/api/v1/logout"))
}

func TestResolve_HostWithPortAndCase(t *testing.T) {
	tenant, err := tenants.Resolve("DevS4You.Business.Invotastic.com:8443", invotasticRules(), tenants.Hints{})
	require.NoError(t, err)
	require.Equal(t, "devs4you", tenant.DomainName)
}

func TestResolve_ExplicitHintWins(t *testing.T) {
	tenant, err := tenants.Resolve("localhost:8080", invotasticRules(), tenants.Hints{TenantDomainName: "acme"})
	require.NoError(t, err)
	require.Equal(t, "acme", tenant.DomainName)
	require.Equal(t, "https://acme.auth.invotastic.com", tenant.AuthOrigin())
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name  string
		host  string
		rules tenants.Rules
	}{
		{name: "host outside root domain", host: "devs4you.example.com", rules: invotasticRules()},
		{name: "bare root domain", host: "business.invotastic.com", rules: invotasticRules()},
		{name: "suffix without dot boundary", host: "evilbusiness.invotastic.com", rules: invotasticRules()},
		{name: "nested labels", host: "a.b.business.invotastic.com", rules: invotasticRules()},
		{name: "no tenant at all", host: "localhost", rules: tenants.Rules{ApplicationDomain: "auth.invotastic.com"}},
		{name: "missing root domain", host: "x.business.invotastic.com", rules: tenants.Rules{UseTenantSubdomains: true, ApplicationDomain: "auth.invotastic.com"}},
		{name: "missing application domain", host: "localhost", rules: tenants.Rules{DefaultTenantDomainName: "acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tenants.Resolve(tt.host, tt.rules, tenants.Hints{})
			require.ErrorIs(t, err, tenants.ErrUnresolved)
		})
	}
}

func TestResolve_InvalidHint(t *testing.T) {
	_, err := tenants.Resolve("localhost", invotasticRules(), tenants.Hints{TenantDomainName: "evil.com/x"})
	require.ErrorIs(t, err, tenants.ErrUnresolved)
}

func TestResolve_DefaultTenant(t *testing.T) {
	rules := tenants.Rules{ApplicationDomain: "auth.invotastic.com", DefaultTenantDomainName: "global"}
	tenant, err := tenants.Resolve("localhost:3000", rules, tenants.Hints{})
	require.NoError(t, err)
	require.Equal(t, "https://global.auth.invotastic.com", tenant.AuthOrigin())
}

func TestResolve_CustomDomains(t *testing.T) {
	rules := invotasticRules()
	rules.UseCustomDomains = true

	t.Run("explicit custom domain", func(t *testing.T) {
		tenant, err := tenants.Resolve("devs4you.business.invotastic.com", rules, tenants.Hints{TenantCustomDomain: "login.devs4you.com"})
		require.NoError(t, err)
		require.Equal(t, "devs4you", tenant.DomainName)
		require.Equal(t, "https://login.devs4you.com", tenant.AuthOrigin())
	})

	t.Run("pattern", func(t *testing.T) {
		rules := rules
		rules.CustomDomainPattern = "{tenant_domain}.login.invotastic.com"
		tenant, err := tenants.Resolve("devs4you.business.invotastic.com", rules, tenants.Hints{})
		require.NoError(t, err)
		require.Equal(t, "https://devs4you.login.invotastic.com", tenant.AuthOrigin())
	})

	t.Run("no custom domain falls back to application domain", func(t *testing.T) {
		tenant, err := tenants.Resolve("devs4you.business.invotastic.com", rules, tenants.Hints{})
		require.NoError(t, err)
		require.Equal(t, "https://devs4you.auth.invotastic.com", tenant.AuthOrigin())
	})

	t.Run("custom domain ignored when disabled", func(t *testing.T) {
		tenant, err := tenants.Resolve("devs4you.business.invotastic.com", invotasticRules(), tenants.Hints{TenantCustomDomain: "login.devs4you.com"})
		require.NoError(t, err)
		require.Equal(t, "https://devs4you.auth.invotastic.com", tenant.AuthOrigin())
	})
}

// Every accepted combination yields a valid origin carrying the tenant label.
func TestResolve_OriginProperty(t *testing.T) {
	hosts := []string{"a", "devs4you", "x-1", "tenant42", "z9"}
	for _, label := range hosts {
		for _, custom := range []bool{false, true} {
			rules := invotasticRules()
			rules.UseCustomDomains = custom
			rules.CustomDomainPattern = "{tenant_domain}.id.invotastic.com"

			tenant, err := tenants.Resolve(label+".business.invotastic.com", rules, tenants.Hints{})
			require.NoError(t, err)

			u, err := url.Parse(tenant.AuthOrigin())
			require.NoError(t, err)
			require.Equal(t, "https", u.Scheme)
			require.Empty(t, u.Path)
			require.True(t, strings.HasPrefix(u.Host, label+"."))
		}
	}
}

func TestTenant_Substitute(t *testing.T) {
	tenant := tenants.Tenant{DomainName: "devs4you"}
	require.Equal(t, "https://devs4you.business.invotastic.com/callback", tenant.Substitute("https://{tenant_domain}.business.invotastic.com/callback"))
}

func TestApplicationOrigin(t *testing.T) {
	require.Equal(t, "https://auth.invotastic.com", tenants.ApplicationOrigin(invotasticRules()))
}
