package auth

import "github.com/jrsteele09/go-tenant-auth/oauthmodel"

// OpenLoginStateCookie decrypts a login-state cookie value.
func (s *AuthenticationService) OpenLoginStateCookie(value string) (*oauthmodel.LoginState, error) {
	return s.openLoginState(value)
}
