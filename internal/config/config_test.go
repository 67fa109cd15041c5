package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() accepted a missing explicit config file")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RootFolder == "" {
		t.Error("default root folder is empty")
	}
	if cfg.DashboardPort == 0 {
		t.Error("default dashboard port is zero")
	}
	if cfg.ClientSecretFile != "client_secret.json" {
		t.Errorf("client secret default = %q", cfg.ClientSecretFile)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	content := "root_folder: /srv/photos\ninclude_video: true\ndashboard_port: 9999\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RootFolder != "/srv/photos" {
		t.Errorf("RootFolder = %q, want /srv/photos", cfg.RootFolder)
	}
	if !cfg.IncludeVideo {
		t.Error("IncludeVideo not read from file")
	}
	if cfg.DashboardPort != 9999 {
		t.Errorf("DashboardPort = %d, want 9999", cfg.DashboardPort)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(path, []byte("root_folder: /from/file\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	t.Setenv("GPHOTOS_ROOT_FOLDER", "/from/env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RootFolder != "/from/env" {
		t.Errorf("RootFolder = %q, want the env override", cfg.RootFolder)
	}
}

func TestNewLogger_FileRotation(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "sync.log")
	cfg := &Config{LogFile: logFile}

	logger := cfg.NewLogger("[test] ")
	logger.Println("hello")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}
