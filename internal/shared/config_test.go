package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./genrestats.db" {
			t.Errorf("expected database path ./genrestats.db, got %s", config.Database.Path)
		}

		if config.Database.Enabled {
			t.Error("expected run ledger to be disabled by default")
		}

		if config.API.BaseURL != "https://api.spotify.com/v1" {
			t.Errorf("expected base url https://api.spotify.com/v1, got %s", config.API.BaseURL)
		}

		if config.API.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", config.API.PageSize)
		}

		if config.Pipeline.Output != "spotify_summary.csv" {
			t.Errorf("expected output spotify_summary.csv, got %s", config.Pipeline.Output)
		}

		want := []string{"techno", "pop", "rock", "jazz", "classical"}
		if len(config.Pipeline.Categories) != len(want) {
			t.Fatalf("expected %d categories, got %d", len(want), len(config.Pipeline.Categories))
		}
		for i, c := range want {
			if config.Pipeline.Categories[i] != c {
				t.Errorf("category %d: expected %s, got %s", i, c, config.Pipeline.Categories[i])
			}
		}

		if config.Credentials.Spotify.GrantType != "client_credentials" {
			t.Errorf("expected grant type client_credentials, got %s", config.Credentials.Spotify.GrantType)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Pipeline.Limit != DefaultConfig().Pipeline.Limit {
			t.Errorf("created config limit doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[pipeline]
categories = ["rock", "jazz"]
limit = 10
output = "out.csv"

[database]
enabled = true
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if len(config.Pipeline.Categories) != 2 || config.Pipeline.Categories[1] != "jazz" {
			t.Errorf("expected categories [rock jazz], got %v", config.Pipeline.Categories)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.API.PageSize != 50 {
			t.Errorf("keys missing from the file should keep defaults, got page size %d", config.API.PageSize)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected loaded config to be valid, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[pipeline\nlimit = "), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("DefaultConfig Has No Credentials", func(t *testing.T) {
		config := DefaultConfig()
		config.ApplyEnv(func(string) (string, bool) { return "", false })

		sp := config.Credentials.Spotify
		if sp.ClientID != "" || sp.ClientSecret != "" {
			t.Errorf("expected empty default credentials, got %q/%q", sp.ClientID, sp.ClientSecret)
		}
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{EnvClientID: "env-id", EnvClientSecret: "env-secret"}
		config.ApplyEnv(func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		})

		cred := config.Credentials.Spotify.Credential()
		if cred.ClientID != "env-id" || cred.ClientSecret != "env-secret" {
			t.Errorf("expected env credentials, got %s", cred)
		}
		if cred.GrantType != "client_credentials" {
			t.Errorf("expected default grant type, got %s", cred.GrantType)
		}
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		dir := t.TempDir()
		envPath := filepath.Join(dir, ".env")
		if err := os.WriteFile(envPath, []byte("GENRESTATS_TEST_DOTENV=from-file\n"), 0644); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		t.Cleanup(func() { os.Unsetenv("GENRESTATS_TEST_DOTENV") })

		if err := LoadDotEnv(envPath); err != nil {
			t.Fatalf("LoadDotEnv() error = %v", err)
		}
		if got := os.Getenv("GENRESTATS_TEST_DOTENV"); got != "from-file" {
			t.Errorf("expected from-file, got %q", got)
		}

		if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
			t.Errorf("missing .env should be ignored, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(c *Config)
			want   error
		}{
			{"valid", func(c *Config) {}, nil},
			{"missing client id", func(c *Config) { c.Credentials.Spotify.ClientID = "" }, ErrMissingCredentials},
			{"missing secret", func(c *Config) { c.Credentials.Spotify.ClientSecret = " " }, ErrMissingCredentials},
			{"no categories", func(c *Config) { c.Pipeline.Categories = nil }, ErrInvalidConfig},
			{"empty category", func(c *Config) { c.Pipeline.Categories = []string{"rock", ""} }, ErrInvalidConfig},
			{"zero limit", func(c *Config) { c.Pipeline.Limit = 0 }, ErrInvalidConfig},
			{"no output", func(c *Config) { c.Pipeline.Output = "" }, ErrInvalidConfig},
			{"minio without bucket", func(c *Config) {
				c.Storage.Minio.Enabled = true
				c.Storage.Minio.Bucket = ""
			}, ErrInvalidConfig},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.Credentials.Spotify.ClientID = "id"
				config.Credentials.Spotify.ClientSecret = "secret"
				tt.mutate(config)
				err := config.Validate()
				if tt.want == nil {
					if err != nil {
						t.Errorf("Validate() unexpected error = %v", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("Validate() error = %v, want %v", err, tt.want)
				}
			})
		}
	})
}
