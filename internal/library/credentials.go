package library

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	credentialService = "prdflow"
	githubTokenKey    = "github_pat"
)

// CredentialManager stores the GitHub Personal Access Token used for private
// template libraries in the OS credential store.
type CredentialManager struct {
	service string
}

// NewCredentialManager creates a credential manager bound to the prdflow
// keyring service.
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{service: credentialService}
}

// StoreToken validates and stores a Personal Access Token.
func (cm *CredentialManager) StoreToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if err := ValidateTokenFormat(token); err != nil {
		return fmt.Errorf("invalid token format: %w", err)
	}
	if err := keyring.Set(cm.service, githubTokenKey, token); err != nil {
		return fmt.Errorf("storing token in credential store: %w", err)
	}
	return nil
}

// GetToken returns the stored Personal Access Token.
func (cm *CredentialManager) GetToken() (string, error) {
	token, err := keyring.Get(cm.service, githubTokenKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", fmt.Errorf("no token stored, run 'prdflow auth set-token' first")
		}
		return "", fmt.Errorf("reading token from credential store: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("stored token is empty, run 'prdflow auth set-token' again")
	}
	return token, nil
}

// DeleteToken removes the stored token. Deleting a token that was never
// stored is not an error.
func (cm *CredentialManager) DeleteToken() error {
	err := keyring.Delete(cm.service, githubTokenKey)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("deleting token from credential store: %w", err)
	}
	return nil
}

// HasToken reports whether a token is stored, without retrieving it.
func (cm *CredentialManager) HasToken() bool {
	_, err := keyring.Get(cm.service, githubTokenKey)
	return err == nil
}

// githubTokenPrefixes are the documented GitHub token prefixes: classic PATs,
// fine-grained PATs, OAuth, user-to-server and server-to-server tokens.
var githubTokenPrefixes = []string{"ghp_", "github_pat_", "gho_", "ghu_", "ghs_"}

// ValidateTokenFormat checks that a token looks like a GitHub PAT.
func ValidateTokenFormat(token string) error {
	token = strings.TrimSpace(token)

	if len(token) < 20 {
		return fmt.Errorf("token too short (minimum 20 characters)")
	}
	for _, prefix := range githubTokenPrefixes {
		if strings.HasPrefix(token, prefix) {
			return nil
		}
	}
	return fmt.Errorf("token does not match expected GitHub PAT format (should start with ghp_ or github_pat_)")
}
