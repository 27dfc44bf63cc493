// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/wakeup/internal/util"
)

const (
	// tokenFileName is the credential file inside the config directory.
	tokenFileName = "token.json"

	// ExpiryMargin is how much remaining lifetime a token needs to still
	// count as valid. A token about to expire mid-session is treated as
	// already expired so the user re-authenticates up front.
	ExpiryMargin = 5 * time.Minute
)

// Token is the stored bearer credential.
//
// The file is overwritten wholesale on every successful login and
// deleted wholesale on logout; fields are never patched in place.
type Token struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether the token is expired or within ExpiryMargin
// of expiring at the given instant. A token with no recorded expiry
// never expires locally; the server is the authority in that case.
func (t *Token) Expired(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.ExpiresAt == nil {
		return false
	}
	return t.ExpiresAt.Sub(now) < ExpiryMargin
}

// TokenGrant is the payload returned by the token endpoint on approval.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

// TokenStore reads and writes the credential file.
type TokenStore struct {
	// Dir is the config directory holding the token file.
	Dir string
}

// NewTokenStore creates a store rooted at dir. An empty dir resolves
// to the default wakeup config directory under the user's home.
func NewTokenStore(dir string) *TokenStore {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".wakeup")
		}
	}
	return &TokenStore{Dir: dir}
}

// Path returns the full path of the token file.
func (s *TokenStore) Path() string {
	return filepath.Join(s.Dir, tokenFileName)
}

// Load reads the stored credential. A missing or unreadable file
// returns (nil, nil): the user is simply not logged in.
func (s *TokenStore) Load() (*Token, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		return nil, nil
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, nil
	}
	if tok.AccessToken == "" {
		return nil, nil
	}
	return &tok, nil
}

// Save persists a fresh grant, replacing any existing credential.
// expires_at is computed from expires_in when the server provided one,
// and left null otherwise.
func (s *TokenStore) Save(grant TokenGrant) (*Token, error) {
	now := time.Now().UTC()

	tok := Token{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		TokenType:    grant.TokenType,
		Scope:        grant.Scope,
		CreatedAt:    now,
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if grant.ExpiresIn > 0 {
		exp := now.Add(time.Duration(grant.ExpiresIn) * time.Second)
		tok.ExpiresAt = &exp
	}

	data, err := json.MarshalIndent(&tok, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode token: %w", err)
	}

	// 0600: the credential is secret, keep it owner-only.
	if err := util.AtomicWriteFile(s.Path(), data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write token file: %w", err)
	}
	return &tok, nil
}

// Clear deletes the stored credential. Clearing an already-absent
// credential is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
