package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// AuthConfig locates the OAuth2 material on disk.
type AuthConfig struct {
	// ClientSecretFile is the OAuth2 client secret JSON downloaded from the
	// Google API console.
	ClientSecretFile string

	// TokenFile caches the user's refresh token between runs. It is created
	// by Authorize and read by NewService.
	TokenFile string
}

// NewService builds an authenticated Drive service from a previously cached
// token. Run Authorize first when no token exists yet.
func NewService(ctx context.Context, cfg AuthConfig) (*drive.Service, error) {
	conf, err := loadOAuthConfig(cfg.ClientSecretFile)
	if err != nil {
		return nil, err
	}
	tok, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("no cached token (run the auth command first): %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return svc, nil
}

// Authorize runs the interactive OAuth2 flow: it returns the URL the user
// must visit, and exchange trades the resulting code for a token which is
// cached at cfg.TokenFile.
func Authorize(cfg AuthConfig) (url string, exchange func(ctx context.Context, code string) error, err error) {
	conf, err := loadOAuthConfig(cfg.ClientSecretFile)
	if err != nil {
		return "", nil, err
	}

	url = conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	exchange = func(ctx context.Context, code string) error {
		tok, err := conf.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		return saveToken(cfg.TokenFile, tok)
	}
	return url, exchange, nil
}

func loadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret %s: %w", path, err)
	}
	conf, err := google.ConfigFromJSON(data, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret %s: %w", path, err)
	}
	return conf, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return tok, nil
}

// saveToken writes the token with owner-only permissions; it carries a
// long-lived refresh token.
func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create token file %s: %w", path, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("failed to write token %s: %w", path, err)
	}
	return nil
}
