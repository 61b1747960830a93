package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService   = "orgpulse"
	keyringTokenUser = "github-token"
)

// StoreGitHubToken saves the token in the OS keyring.
func StoreGitHubToken(token string) error {
	if err := keyring.Set(keyringService, keyringTokenUser, strings.TrimSpace(token)); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteGitHubToken removes the stored token. A missing entry is not an error.
func DeleteGitHubToken() error {
	if err := keyring.Delete(keyringService, keyringTokenUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// ResolveGitHubToken returns the configured token, falling back to the OS keyring.
// An unavailable keyring yields an empty token.
func ResolveGitHubToken(cfg *Config) string {
	if cfg.GitHubToken != "" {
		return cfg.GitHubToken
	}
	token, err := keyring.Get(keyringService, keyringTokenUser)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}
