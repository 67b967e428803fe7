package config

import "testing"

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "memcached"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "redis" or "valkey", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_KnownDrivers(t *testing.T) {
	for _, driver := range []string{"redis", "valkey"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.Driver = driver

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_BadRegionCode(t *testing.T) {
	for _, region := range []string{"india", "in", "I", "USA", ""} {
		t.Run("region="+region, func(t *testing.T) {
			cfg := validConfig()
			cfg.Catalog.PriorityRegions = []string{region}

			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for region %q", region)
			}
		})
	}
}

func TestValidate_RecencyDecayRange(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.RecencyDecay = 1.2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for decay above 1")
	}

	cfg.Catalog.RecencyDecay = -0.1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative decay")
	}

	cfg.Catalog.RecencyDecay = 0.5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error for valid decay: %v", err)
	}
}

func TestValidate_ZeroPageSize(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.PageSize = -5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive page size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected Driver='redis', got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Storage.KeyPrefix != "cinedex:" {
		t.Errorf("expected KeyPrefix='cinedex:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Artifacts.Dir != "data/index" {
		t.Errorf("expected Dir='data/index', got %q", cfg.Artifacts.Dir)
	}
	if cfg.Catalog.PageSize != 50 {
		t.Errorf("expected PageSize=50, got %d", cfg.Catalog.PageSize)
	}
	if cfg.Catalog.SeedCount != 5 {
		t.Errorf("expected SeedCount=5, got %d", cfg.Catalog.SeedCount)
	}
	if cfg.Catalog.MaxExclusions != 10000 {
		t.Errorf("expected MaxExclusions=10000, got %d", cfg.Catalog.MaxExclusions)
	}
	if len(cfg.Catalog.PriorityRegions) != 1 || cfg.Catalog.PriorityRegions[0] != "IN" {
		t.Errorf("expected PriorityRegions=[IN], got %v", cfg.Catalog.PriorityRegions)
	}
	if cfg.Soup.GenreWeight != 3 || cfg.Soup.DirectorWeight != 3 || cfg.Soup.ActorWeight != 2 {
		t.Errorf("unexpected soup weights: %+v", cfg.Soup)
	}
	if cfg.Soup.MaxActors != 5 {
		t.Errorf("expected MaxActors=5, got %d", cfg.Soup.MaxActors)
	}
	if cfg.Build.MinVotes != 500 {
		t.Errorf("expected MinVotes=500, got %d", cfg.Build.MinVotes)
	}
	if cfg.Build.MinYear != 1980 {
		t.Errorf("expected MinYear=1980, got %d", cfg.Build.MinYear)
	}
	if cfg.Trakt.PollIntervalSec != 3600 {
		t.Errorf("expected PollIntervalSec=3600, got %d", cfg.Trakt.PollIntervalSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "valkey", ReadinessTimeout: 15},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
		Catalog:  CatalogConfig{PageSize: 25, SeedCount: 3, PriorityRegions: []string{"US", "GB"}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver='valkey', got %q", cfg.Database.Driver)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Catalog.PageSize != 25 {
		t.Errorf("expected PageSize=25, got %d", cfg.Catalog.PageSize)
	}
	if len(cfg.Catalog.PriorityRegions) != 2 {
		t.Errorf("expected PriorityRegions=[US GB], got %v", cfg.Catalog.PriorityRegions)
	}
}

func TestTraktEnabled(t *testing.T) {
	cases := []struct {
		username, clientID string
		want               bool
	}{
		{"", "", false},
		{"alice", "", false},
		{"", "abc123", false},
		{"alice", "abc123", true},
	}
	for _, tc := range cases {
		cfg := TraktConfig{Username: tc.username, ClientID: tc.clientID}
		if cfg.Enabled() != tc.want {
			t.Errorf("Enabled(%q, %q) = %v, want %v", tc.username, tc.clientID, cfg.Enabled(), tc.want)
		}
	}
}
