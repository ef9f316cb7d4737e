package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := writeConfigFile(t, "appName: test-app\n")
	cfg, err := Load(dir, "config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AppName != "test-app" {
		t.Errorf("appName = %s", cfg.AppName)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr default = %s", cfg.Server.Addr)
	}
	if cfg.Providers.MaxAttempts != 2 {
		t.Errorf("providers.maxAttempts default = %d", cfg.Providers.MaxAttempts)
	}
	if cfg.TTSClient.TimeoutSeconds != 60 {
		t.Errorf("ttsClient.timeoutSeconds default = %d", cfg.TTSClient.TimeoutSeconds)
	}
	if cfg.CurrentEnhancementPrompt() == "" {
		t.Error("default enhancement prompt must be present")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := writeConfigFile(t, `
server:
  addr: ":9090"
providers:
  maxAttempts: 5
prompts:
  enhancement:
    currentVersion: "v2"
    versions:
      v2: "custom prompt text"
`)
	cfg, err := Load(dir, "config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server.addr = %s", cfg.Server.Addr)
	}
	if cfg.Providers.MaxAttempts != 5 {
		t.Errorf("providers.maxAttempts = %d", cfg.Providers.MaxAttempts)
	}
	if got := cfg.CurrentEnhancementPrompt(); got != "custom prompt text" {
		t.Errorf("current prompt = %q", got)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "config")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("database.port default = %d", cfg.Database.Port)
	}
}

func TestLoadRejectsAuthWithoutClientID(t *testing.T) {
	dir := writeConfigFile(t, "auth:\n  enabled: true\n")
	if _, err := Load(dir, "config"); err == nil {
		t.Fatal("auth enabled without googleClientID must fail")
	}
}
