package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/20uf/tidy-ur-spotify/internal/models"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Credentials.Spotify.RedirectURI != "http://localhost:8888/callback" {
			t.Errorf("unexpected default redirect URI: %s", config.Credentials.Spotify.RedirectURI)
		}
		if config.LLM.Provider != "openai" {
			t.Errorf("expected default provider openai, got %s", config.LLM.Provider)
		}
		if config.Classifier.BatchSize != 10 {
			t.Errorf("expected default batch size 10, got %d", config.Classifier.BatchSize)
		}
		if len(config.Themes) != 2 {
			t.Fatalf("expected 2 default themes, got %d", len(config.Themes))
		}
		if config.Themes[0].Key != "ambiance" || config.Themes[1].Key != "lets_dance" {
			t.Errorf("unexpected default theme keys: %s, %s", config.Themes[0].Key, config.Themes[1].Key)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("Load And Save Round Trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "client123"
		config.LLM.Model = "gpt-4o-mini"

		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("SaveConfig failed: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}

		if loaded.Credentials.Spotify.ClientID != "client123" {
			t.Errorf("client id not round-tripped: %s", loaded.Credentials.Spotify.ClientID)
		}
		if loaded.LLM.Model != "gpt-4o-mini" {
			t.Errorf("model not round-tripped: %s", loaded.LLM.Model)
		}
		if len(loaded.Themes) != len(config.Themes) {
			t.Errorf("themes not round-tripped: %d vs %d", len(loaded.Themes), len(config.Themes))
		}
	})

	t.Run("Load Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile failed: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected config file to exist: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			themes []models.Theme
			ok     bool
		}{
			{name: "no themes", themes: nil, ok: false},
			{
				name:   "empty key",
				themes: []models.Theme{{Name: "Ambiance"}},
				ok:     false,
			},
			{
				name: "duplicate key",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "1"},
					{Key: "ambiance", Name: "Again", Shortcut: "2"},
				},
				ok: false,
			},
			{
				name: "duplicate shortcut",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "1"},
					{Key: "lets_dance", Name: "Let's Dance", Shortcut: "1"},
				},
				ok: false,
			},
			{
				name: "reserved shortcut shadows skip",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "s"},
				},
				ok: false,
			},
			{
				name: "reserved shortcut shadows undo",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "u"},
				},
				ok: false,
			},
			{
				name: "reserved shortcut shadows quit",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "q"},
				},
				ok: false,
			},
			{
				name: "valid set",
				themes: []models.Theme{
					{Key: "ambiance", Name: "Ambiance", Shortcut: "1"},
					{Key: "lets_dance", Name: "Let's Dance", Shortcut: "2"},
				},
				ok: true,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := &Config{Themes: tt.themes}
				err := config.Validate()
				if tt.ok && err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				if !tt.ok && err == nil {
					t.Error("expected validation error")
				}
			})
		}
	})

	t.Run("ThemeByKey", func(t *testing.T) {
		config := DefaultConfig()

		theme, err := config.ThemeByKey("ambiance")
		if err != nil {
			t.Fatalf("expected ambiance theme, got %v", err)
		}
		if theme.Name != "Ambiance" {
			t.Errorf("unexpected theme name: %s", theme.Name)
		}

		if _, err := config.ThemeByKey("nope"); !errors.Is(err, ErrUnknownTheme) {
			t.Errorf("expected ErrUnknownTheme, got %v", err)
		}
	})

	t.Run("ThemeByShortcut", func(t *testing.T) {
		config := DefaultConfig()

		theme, ok := config.ThemeByShortcut("2")
		if !ok || theme.Key != "lets_dance" {
			t.Errorf("expected lets_dance for shortcut 2, got %+v ok=%v", theme, ok)
		}

		if _, ok := config.ThemeByShortcut("9"); ok {
			t.Error("expected no theme for shortcut 9")
		}
	})

	t.Run("IsConfigured", func(t *testing.T) {
		config := DefaultConfig()
		if config.IsConfigured() {
			t.Error("empty credentials should not be configured")
		}

		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.Spotify.ClientSecret = "secret"
		config.LLM.APIKey = "key"
		if !config.IsConfigured() {
			t.Error("expected configured once credentials are set")
		}
	})
}
