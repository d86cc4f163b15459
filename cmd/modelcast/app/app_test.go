package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_Client_Singleton verifies concurrent Client() calls share one instance.
func TestApp_Client_Singleton(t *testing.T) {
	app, err := New("1.0.0", "test", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]any, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c, err := app.Client()
			if err != nil {
				t.Errorf("Client() failed: %v", err)
			}
			results[idx] = c
		}(i)
	}
	wg.Wait()

	for i, c := range results[1:] {
		if c != results[0] {
			t.Errorf("Goroutine %d got a different client", i+1)
		}
	}
}

// TestApp_Client_InvalidURL verifies a bad remote URL is reported.
func TestApp_Client_InvalidURL(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	config.RemoteURL = "localhost:8080"

	nop := zerolog.Nop()
	app, err := New("dev", "", "", "", WithConfig(config), WithLogger(&nop))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := app.Client(); err == nil {
		t.Error("Client() should fail for a URL without scheme")
	}
}

// TestExecute_Version runs the root command end to end.
func TestExecute_Version(t *testing.T) {
	app, err := New("1.2.3", "abc", "today", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "-o", "json", "-q"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !strings.Contains(out.String(), `"version": "1.2.3"`) {
		t.Errorf("unexpected output: %s", out.String())
	}
	if !app.Config().Quiet {
		t.Error("--quiet flag not applied to config")
	}
}

// TestExecute_ConfigFlag verifies --config replaces the loaded configuration.
func TestExecute_ConfigFlag(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "modelcast.yaml")
	catalogPath := filepath.Join(dir, "models.json")
	if err := os.WriteFile(catalogPath, []byte(`[{"id":"m1"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	yaml := "catalog:\n  path: " + catalogPath + "\nfeedback:\n  questions_path: " + catalogPath + "\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	app, err := New("dev", "", "", "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", configPath, "validate"})

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("Execute() failed: %v\n%s", err, out.String())
	}
	if got := app.ServerConfig().CatalogPath; got != catalogPath {
		t.Errorf("CatalogPath = %s, want %s", got, catalogPath)
	}
	if !strings.Contains(out.String(), "1 records") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

// TestExecute_MissingConfigFile verifies an explicit missing config is an error.
func TestExecute_MissingConfigFile(t *testing.T) {
	app, err := New("dev", "", "", "")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := app.createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "version"})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("Execute() should fail for a missing config file")
	}
}
