package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// EnvPath overrides the location of the config file.
const EnvPath = "PLAID_CONFIG"

// Auth methods for the Jira server.
const (
	AuthToken = "token"
	AuthBasic = "basic"
)

// DefaultDataDir is where work logs, preferences and credentials live.
const DefaultDataDir = "~/.plaid"

// Config is the root configuration for plaid, stored in ~/.plaid/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Jira JiraConfig `json:"jira"`
	// DataDir holds local work logs, preferences and credentials. A leading
	// ~ is expanded.
	DataDir string `json:"data_dir"`
	// Offline keeps work logs in DataDir instead of talking to Jira.
	Offline bool `json:"offline"`
}

// JiraConfig points plaid at a Jira server.
type JiraConfig struct {
	URL string `json:"url"`
	// Auth is "token" (personal access token, sent as bearer) or "basic"
	// (username and API token).
	Auth     string `json:"auth"`
	Username string `json:"username"`
}

func defaultConfig() Config {
	return Config{
		Jira:    JiraConfig{Auth: AuthToken},
		DataDir: DefaultDataDir,
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `// plaid configuration – ~/.plaid/config.json
//
// Lines starting with // are comments. Every setting is optional.
{
  // ── Jira server ──────────────────────────────────────────────────────────
  "jira": {
    // Base URL of the Jira server, e.g. "https://jira.example.com".
    "url": "",

    // "token" – personal access token sent as a bearer token (default)
    // "basic" – username plus API token (Jira Cloud)
    "auth": "token",

    // Only used with "basic" auth.
    "username": ""
  },

  // Directory for credentials, preferences and offline work logs.
  "data_dir": "~/.plaid",

  // Keep work logs locally instead of on the Jira server.
  // Can be enabled per command with: plaid --offline
  "offline": false
}
`

// Path returns the config file location: $PLAID_CONFIG or ~/.plaid/config.json.
func Path() (string, error) {
	if p := os.Getenv(EnvPath); p != "" {
		return homedir.Expand(p)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".plaid", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Inline comments are left alone.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config file, creating it with annotated defaults on first
// run.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return resolved(defaultConfig())
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. A missing file is created from the
// template and yields the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return resolved(defaultConfig())
	}
	if err != nil {
		cfg, _ := resolved(defaultConfig())
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		def, _ := resolved(defaultConfig())
		return def, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	if err := cfg.Validate(); err != nil {
		def, _ := resolved(defaultConfig())
		return def, fmt.Errorf("config file %s: %w", path, err)
	}
	return resolved(cfg)
}

// Validate rejects settings that cannot work.
func (c Config) Validate() error {
	switch strings.ToLower(c.Jira.Auth) {
	case "", AuthToken, AuthBasic:
	default:
		return fmt.Errorf("jira.auth must be %q or %q, got %q", AuthToken, AuthBasic, c.Jira.Auth)
	}
	if c.Jira.URL != "" && !strings.HasPrefix(c.Jira.URL, "http://") && !strings.HasPrefix(c.Jira.URL, "https://") {
		return fmt.Errorf("jira.url must start with http:// or https://, got %q", c.Jira.URL)
	}
	return nil
}

// resolved fills zero fields with defaults and expands DataDir.
func resolved(cfg Config) (Config, error) {
	if cfg.Jira.Auth == "" {
		cfg.Jira.Auth = AuthToken
	}
	cfg.Jira.Auth = strings.ToLower(cfg.Jira.Auth)
	cfg.Jira.URL = strings.TrimRight(cfg.Jira.URL, "/")
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	dir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("expanding data_dir %q: %w", cfg.DataDir, err)
	}
	cfg.DataDir = dir
	return cfg, nil
}

// Save writes cfg to path as plain JSON, replacing any comments.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
