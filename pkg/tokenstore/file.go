package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// File persists the token as a JSON file. The on-disk shape is an
// oauth2.Token, so the file interoperates with other tooling that caches
// tokens in that format.
//
// The file is written with 0600 permissions and its directory is created
// with 0700, since the stored value is a live credential.
type File struct {
	path string
}

// NewFile creates a file-based token store at the given path, creating the
// parent directory if needed.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("token file path must not be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	return &File{path: path}, nil
}

// Load reads the stored token. A missing file is not an error; it simply
// means nothing is stored.
func (s *File) Load(ctx context.Context) (string, time.Time, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token.AccessToken, token.Expiry, nil
}

// Save writes the token, replacing any previous one.
func (s *File) Save(ctx context.Context, accessToken string, expiry time.Time) error {
	token := oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		Expiry:      expiry,
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
