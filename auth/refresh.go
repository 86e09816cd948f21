package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/jrsteele09/go-tenant-auth/tenants"
)

// RefreshTokenIfExpired refreshes the access token when expiresAt (Unix
// milliseconds) is within the configured expiration buffer of now. It
// returns (nil, nil) when no refresh is needed, without any network call.
//
// A rejected refresh token is reported as *oauthmodel.InvalidGrantError,
// which matches oauthmodel.ErrInvalidGrant; callers should start a new login.
func (s *AuthenticationService) RefreshTokenIfExpired(ctx context.Context, refreshToken string, expiresAt int64) (*oauthmodel.TokenData, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("[auth RefreshTokenIfExpired] %w: refresh token is required", oauthmodel.ErrConfiguration)
	}
	if expiresAt <= 0 {
		return nil, fmt.Errorf("[auth RefreshTokenIfExpired] %w: expiresAt must be a Unix millisecond timestamp", oauthmodel.ErrConfiguration)
	}

	refreshAt := time.UnixMilli(expiresAt).Add(-s.config.TokenExpirationBuffer)
	if s.nowTime().Before(refreshAt) {
		return nil, nil
	}

	// Concurrent requests holding the same refresh token share one grant.
	ch := s.refreshGroup.DoChan(refreshToken, func() (any, error) {
		return s.provider.RefreshToken(context.WithoutCancel(ctx), tenants.ApplicationOrigin(s.rules), refreshToken)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("[auth RefreshTokenIfExpired] %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn().Err(res.Err).Bool("shared", res.Shared).Msg("token refresh failed")
			return nil, fmt.Errorf("[auth RefreshTokenIfExpired] %w", res.Err)
		}
		s.logger.Debug().Bool("shared", res.Shared).Msg("access token refreshed")
		tokens := *res.Val.(*oauthmodel.TokenData)
		return &tokens, nil
	}
}
