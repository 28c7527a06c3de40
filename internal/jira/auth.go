package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// Credentials authenticate against the Jira server.
type Credentials struct {
	// Method is "token" or "basic".
	Method   string `json:"method"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token"`
}

// credentialsPath returns <dataDir>/auth/credentials.json.
func credentialsPath(dataDir string) string {
	return filepath.Join(dataDir, "auth", "credentials.json")
}

// LoadCredentials reads the stored credentials. It returns
// ErrNoCredentials when login never ran.
func LoadCredentials(dataDir string) (Credentials, error) {
	path := credentialsPath(dataDir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("corrupt credentials file (delete %s and log in again): %w", path, err)
	}
	if c.Token == "" {
		return Credentials{}, ErrNoCredentials
	}
	return c, nil
}

// SaveCredentials persists c readable by the owner only.
func SaveCredentials(dataDir string, c Credentials) error {
	path := credentialsPath(dataDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("saving credentials file: %w", err)
	}
	return nil
}

// DeleteCredentials forgets the stored credentials.
func DeleteCredentials(dataDir string) error {
	err := os.Remove(credentialsPath(dataDir))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	return nil
}

// NewHTTPClient returns a client that authenticates every request with c.
// Tokens are sent as bearer tokens through an oauth2 static token source;
// basic credentials use HTTP basic auth.
func NewHTTPClient(ctx context.Context, c Credentials) *http.Client {
	if c.Method == "basic" {
		return &http.Client{
			Timeout: 30 * time.Second,
			Transport: &basicAuthTransport{
				username: c.Username,
				token:    c.Token,
				base:     http.DefaultTransport,
			},
		}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.Token, TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = 30 * time.Second
	return hc
}

type basicAuthTransport struct {
	username, token string
	base            http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.username, t.token)
	return t.base.RoundTrip(r)
}
