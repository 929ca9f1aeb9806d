package provider

import (
	"context"
	"fmt"
	"time"

	"unified-calendar/core/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Token is a refreshed access token with its expiry.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshToken exchanges a refresh token for a fresh access token for
// the given provider. OAuth acquisition (the initial handshake) lives
// in the external collaborator; only refresh happens here.
func RefreshToken(ctx context.Context, p Provider, refreshToken string) (*Token, error) {
	cfg, ok := config.GetSafe()
	if !ok {
		return nil, fmt.Errorf("config not initialized")
	}

	var oauthConfig *oauth2.Config
	switch p {
	case Google:
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleAPI.ClientID,
			ClientSecret: cfg.GoogleAPI.ClientSecret,
			Endpoint:     google.Endpoint,
		}
	case Microsoft:
		tenant := cfg.MicrosoftAPI.TenantID
		if tenant == "" {
			tenant = "common"
		}
		oauthConfig = &oauth2.Config{
			ClientID:     cfg.MicrosoftAPI.ClientID,
			ClientSecret: cfg.MicrosoftAPI.ClientSecret,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", p)
	}

	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%s token refresh: %w", p, err)
	}

	return &Token{
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
		ExpiresAt:    newToken.Expiry,
	}, nil
}
