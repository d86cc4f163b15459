package app

import (
	"testing"
	"time"

	"github.com/agentstation/modelcast/internal/server"
)

// TestLoadConfig verifies defaults match the server defaults.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	d := server.DefaultConfig()
	if config.Server.Port != d.Port {
		t.Errorf("Port = %d, want %d", config.Server.Port, d.Port)
	}
	if config.Server.CatalogPath != d.CatalogPath {
		t.Errorf("CatalogPath = %s, want %s", config.Server.CatalogPath, d.CatalogPath)
	}
	if config.Server.Trigger != d.Trigger {
		t.Errorf("Trigger = %s, want %s", config.Server.Trigger, d.Trigger)
	}
	if config.ReconnectDelay != 3*time.Second {
		t.Errorf("ReconnectDelay = %v, want 3s", config.ReconnectDelay)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies MODELCAST_ variables are read.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("MODELCAST_SERVER_PORT", "9090")
	t.Setenv("MODELCAST_CATALOG_PATH", "/srv/models.json")
	t.Setenv("MODELCAST_CATALOG_TRIGGER", "poll")
	t.Setenv("MODELCAST_CATALOG_POLL_INTERVAL", "5s")
	t.Setenv("MODELCAST_CATALOG_KEEP_LAST_GOOD", "true")
	t.Setenv("MODELCAST_REMOTE_URL", "http://catalog.internal:8080")
	t.Setenv("MODELCAST_FORMAT", "yaml")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", config.Server.Port)
	}
	if config.Server.CatalogPath != "/srv/models.json" {
		t.Errorf("CatalogPath = %s", config.Server.CatalogPath)
	}
	if config.Server.Trigger != "poll" {
		t.Errorf("Trigger = %s, want poll", config.Server.Trigger)
	}
	if config.Server.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", config.Server.PollInterval)
	}
	if !config.Server.KeepLastGood {
		t.Error("KeepLastGood not loaded")
	}
	if config.RemoteURL != "http://catalog.internal:8080" {
		t.Errorf("RemoteURL = %s", config.RemoteURL)
	}
	if config.Format != "yaml" {
		t.Errorf("Format = %s, want yaml", config.Format)
	}
	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}
}

// TestConfig_UpdateFromFlags verifies flags override loaded values.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "table", RemoteURL: "http://a", LogLevel: "info"}

	config.UpdateFromFlags(true, false, true, "json", "", "http://b")

	if !config.Verbose || config.Quiet || !config.NoColor {
		t.Errorf("bool flags not applied: %+v", config)
	}
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
	if config.LogLevel != "info" {
		t.Errorf("empty --log-level should keep %q, got %q", "info", config.LogLevel)
	}
	if config.RemoteURL != "http://b" {
		t.Errorf("RemoteURL = %s, want http://b", config.RemoteURL)
	}
}
