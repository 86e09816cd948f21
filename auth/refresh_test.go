package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-tenant-auth/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenIfExpired(t *testing.T) {
	tests := []struct {
		name          string
		expiresAt     time.Duration
		expectRefresh bool
	}{
		{"far future", time.Hour, false},
		{"outside buffer", 61 * time.Second, false},
		{"inside buffer", 30 * time.Second, true},
		{"at buffer edge", 60 * time.Second, true},
		{"expired", -time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)

			tokens, err := f.service.RefreshTokenIfExpired(context.Background(), "refresh-token", f.now.Add(tt.expiresAt).UnixMilli())
			require.NoError(t, err)

			calls := f.provider.Calls("RefreshToken")
			if !tt.expectRefresh {
				require.Nil(t, tokens)
				require.Empty(t, calls)
				return
			}
			require.NotNil(t, tokens)
			require.Equal(t, "refreshed-access-token", tokens.AccessToken)
			require.Len(t, calls, 1)
			require.Equal(t, "https://"+testAppDomain, calls[0].Origin)
			require.Equal(t, "refresh-token", calls[0].Token)
		})
	}
}

func TestRefreshTokenIfExpired_InvalidGrant(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RefreshErr = &oauthmodel.InvalidGrantError{Description: "refresh token revoked"}

	tokens, err := f.service.RefreshTokenIfExpired(context.Background(), "refresh-token", f.now.Add(-time.Minute).UnixMilli())
	require.Nil(t, tokens)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidGrant)

	var invalidGrant *oauthmodel.InvalidGrantError
	require.True(t, errors.As(err, &invalidGrant))
	require.Equal(t, "refresh token revoked", invalidGrant.Description)
}

func TestRefreshTokenIfExpired_ProviderFault(t *testing.T) {
	f := setupTestFixture(t)
	f.provider.RefreshErr = &oauthmodel.ProviderError{StatusCode: 503}

	_, err := f.service.RefreshTokenIfExpired(context.Background(), "refresh-token", f.now.UnixMilli())
	require.Error(t, err)
	require.False(t, errors.Is(err, oauthmodel.ErrInvalidGrant))
}

func TestRefreshTokenIfExpired_BadInput(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.RefreshTokenIfExpired(context.Background(), "", f.now.UnixMilli())
	require.ErrorIs(t, err, oauthmodel.ErrConfiguration)

	_, err = f.service.RefreshTokenIfExpired(context.Background(), "refresh-token", 0)
	require.ErrorIs(t, err, oauthmodel.ErrConfiguration)
	require.Empty(t, f.provider.Calls(""))
}

func TestRefreshTokenIfExpired_ConcurrentCallersShareGrant(t *testing.T) {
	f := setupTestFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.provider.BeforeRefresh = func() {
		once.Do(func() { close(started) })
		<-release
	}

	expiresAt := f.now.Add(-time.Minute).UnixMilli()
	results := make([]string, 2)
	var wg sync.WaitGroup
	refresh := func(i int) {
		defer wg.Done()
		tokens, err := f.service.RefreshTokenIfExpired(context.Background(), "refresh-token", expiresAt)
		if err == nil && tokens != nil {
			results[i] = tokens.AccessToken
		}
	}

	wg.Add(2)
	go refresh(0)
	<-started
	go refresh(1)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, []string{"refreshed-access-token", "refreshed-access-token"}, results)
	require.Len(t, f.provider.Calls("RefreshToken"), 1)
}

func TestRefreshTokenIfExpired_ContextCancelled(t *testing.T) {
	f := setupTestFixture(t)
	release := make(chan struct{})
	defer close(release)
	f.provider.BeforeRefresh = func() { <-release }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	tokens, err := f.service.RefreshTokenIfExpired(ctx, "refresh-token", f.now.UnixMilli())
	require.Nil(t, tokens)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
