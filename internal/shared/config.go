package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// A single instance is constructed at startup and passed by reference into
// each component; nothing reads configuration through package globals.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	LLM         LLMConfig         `toml:"llm"`
	Classifier  ClassifierConfig  `toml:"classifier"`
	Session     SessionConfig     `toml:"session"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Themes      []models.Theme    `toml:"themes"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the saved OAuth tokens.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

// Map converts the Spotify credentials to the map form the service constructor expects.
func (s *SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// Update stores a freshly exchanged OAuth token on the config.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrAuthFailed)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	return nil
}

// LLMConfig selects the classification provider.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

// ClassifierConfig tunes the suggestion cache and preload window.
type ClassifierConfig struct {
	CachePath string `toml:"cache_path"`
	BatchSize int    `toml:"batch_size"`
	Lookahead int    `toml:"lookahead"`
}

// SessionConfig contains classification session file paths and mode flags.
type SessionConfig struct {
	ProgressPath   string `toml:"progress_path"`
	ExportPath     string `toml:"export_path"`
	PlaylistPrefix string `toml:"playlist_prefix"`
	SimulationMode bool   `toml:"simulation_mode"`
}

// DatabaseConfig contains the local track cache settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ThemeByKey looks up a configured theme by its stable key.
func (c *Config) ThemeByKey(key string) (models.Theme, error) {
	for _, th := range c.Themes {
		if th.Key == key {
			return th, nil
		}
	}
	return models.Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, key)
}

// ThemeByShortcut looks up a configured theme by its keyboard shortcut.
func (c *Config) ThemeByShortcut(shortcut string) (models.Theme, bool) {
	for _, th := range c.Themes {
		if th.Shortcut == shortcut {
			return th, true
		}
	}
	return models.Theme{}, false
}

// reservedShortcuts are the classify view's own key bindings; a theme bound
// to one of these would shadow skip, undo, quit, or help.
var reservedShortcuts = map[string]bool{"s": true, "u": true, "q": true, "?": true}

// Validate checks the invariants the classification core relies on:
// a non-empty theme set with unique keys and shortcuts.
func (c *Config) Validate() error {
	if len(c.Themes) == 0 {
		return fmt.Errorf("%w: no themes configured", ErrInvalidConfig)
	}

	keys := make(map[string]bool, len(c.Themes))
	shortcuts := make(map[string]bool, len(c.Themes))
	for _, th := range c.Themes {
		if th.Key == "" {
			return fmt.Errorf("%w: theme with empty key", ErrInvalidConfig)
		}
		if keys[th.Key] {
			return fmt.Errorf("%w: duplicate theme key %q", ErrInvalidConfig, th.Key)
		}
		keys[th.Key] = true

		if th.Shortcut != "" {
			if reservedShortcuts[th.Shortcut] {
				return fmt.Errorf("%w: theme shortcut %q is reserved", ErrInvalidConfig, th.Shortcut)
			}
			if shortcuts[th.Shortcut] {
				return fmt.Errorf("%w: duplicate theme shortcut %q", ErrInvalidConfig, th.Shortcut)
			}
			shortcuts[th.Shortcut] = true
		}
	}

	return nil
}

// IsConfigured reports whether the credentials required for a classification
// run are all present.
func (c *Config) IsConfigured() bool {
	return c.Credentials.Spotify.ClientID != "" &&
		c.Credentials.Spotify.ClientSecret != "" &&
		c.LLM.Provider != "" &&
		c.LLM.APIKey != ""
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to the specified path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
