package config

import (
	"os"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"GITHUB_TOKEN", "GITHUB_GRAPHQL_URL", "TARGET_COUNT", "PAGE_SIZE",
	"MIN_STARS", "PACE_EVERY_PAGES", "PACE_DELAY_MS", "OUTPUT_PATH",
	"STORAGE_TYPE", "SQLITE_PATH", "POSTGRES_URL", "API_PORT", "API_HOST",
	"API_ENDPOINT",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GITHUB_TOKEN", "token123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.GitHubToken != "token123" {
		t.Errorf("GitHubToken = %q, want %q", cfg.GitHubToken, "token123")
	}
	if cfg.GraphQLURL != "https://api.github.com/graphql" {
		t.Errorf("GraphQLURL = %q, want default endpoint", cfg.GraphQLURL)
	}
	if cfg.TargetCount != 100 {
		t.Errorf("TargetCount = %d, want 100", cfg.TargetCount)
	}
	if cfg.PageSize != 25 {
		t.Errorf("PageSize = %d, want 25", cfg.PageSize)
	}
	if cfg.MinStars != 1000 {
		t.Errorf("MinStars = %d, want 1000", cfg.MinStars)
	}
	if cfg.PaceEveryPages != 5 {
		t.Errorf("PaceEveryPages = %d, want 5", cfg.PaceEveryPages)
	}
	if cfg.PaceDelay != 2*time.Second {
		t.Errorf("PaceDelay = %v, want 2s", cfg.PaceDelay)
	}
	if cfg.OutputPath != "repositories_data.csv" {
		t.Errorf("OutputPath = %q, want repositories_data.csv", cfg.OutputPath)
	}
	if cfg.StorageType != "none" {
		t.Errorf("StorageType = %q, want none", cfg.StorageType)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GITHUB_TOKEN", "token123")
	t.Setenv("TARGET_COUNT", "250")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("MIN_STARS", "500")
	t.Setenv("PACE_DELAY_MS", "100")
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("OUTPUT_PATH", "/tmp/out.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.TargetCount != 250 {
		t.Errorf("TargetCount = %d, want 250", cfg.TargetCount)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", cfg.PageSize)
	}
	if cfg.MinStars != 500 {
		t.Errorf("MinStars = %d, want 500", cfg.MinStars)
	}
	if cfg.PaceDelay != 100*time.Millisecond {
		t.Errorf("PaceDelay = %v, want 100ms", cfg.PaceDelay)
	}
	if cfg.StorageType != "sqlite" {
		t.Errorf("StorageType = %q, want sqlite", cfg.StorageType)
	}
	if cfg.OutputPath != "/tmp/out.csv" {
		t.Errorf("OutputPath = %q, want /tmp/out.csv", cfg.OutputPath)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GITHUB_TOKEN", "token123")
	t.Setenv("TARGET_COUNT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.TargetCount != 100 {
		t.Errorf("TargetCount = %d, want default 100", cfg.TargetCount)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GitHubToken: "token123",
			TargetCount: 100,
			PageSize:    25,
			MinStars:    1000,
			StorageType: "none",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		wantField string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "missing token",
			mutate:    func(c *Config) { c.GitHubToken = "" },
			wantErr:   true,
			wantField: "GITHUB_TOKEN",
		},
		{
			name:      "zero target",
			mutate:    func(c *Config) { c.TargetCount = 0 },
			wantErr:   true,
			wantField: "TARGET_COUNT",
		},
		{
			name:      "page size above cap",
			mutate:    func(c *Config) { c.PageSize = 101 },
			wantErr:   true,
			wantField: "PAGE_SIZE",
		},
		{
			name:      "negative min stars",
			mutate:    func(c *Config) { c.MinStars = -1 },
			wantErr:   true,
			wantField: "MIN_STARS",
		},
		{
			name:      "unknown storage type",
			mutate:    func(c *Config) { c.StorageType = "mysql" },
			wantErr:   true,
			wantField: "STORAGE_TYPE",
		},
		{
			name: "postgres without URL",
			mutate: func(c *Config) {
				c.StorageType = "postgres"
				c.PostgresURL = ""
			},
			wantErr:   true,
			wantField: "POSTGRES_URL",
		},
		{
			name: "postgres with URL",
			mutate: func(c *Config) {
				c.StorageType = "postgres"
				c.PostgresURL = "postgres://localhost/metrics"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() error type = %T, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Validate() field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}
