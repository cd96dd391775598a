package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// isolate points the default config location at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := userConfigDir
	userConfigDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userConfigDir = old })
	t.Setenv(EnvConfig, "")
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadConfig() = %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "cache_size: 64\nlog_level: debug\noutput: json\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.CacheSize != 64 || cfg.LogLevel != "debug" || cfg.Output != "json" {
		t.Errorf("LoadConfig() = %+v", cfg)
	}
	// Fields absent from the file keep their defaults
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want default text", cfg.LogFormat)
	}
}

func TestLoadConfigSources(t *testing.T) {
	dir := isolate(t)

	defaultPath := filepath.Join(dir, "litereader", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(defaultPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(defaultPath, []byte("cache_size: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	envPath := writeConfig(t, "cache_size: 2\n")
	flagPath := writeConfig(t, "cache_size: 3\n")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(default) error = %v", err)
	}
	if cfg.CacheSize != 1 {
		t.Errorf("default location CacheSize = %d, want 1", cfg.CacheSize)
	}

	t.Setenv(EnvConfig, envPath)
	if cfg, err = LoadConfig(""); err != nil {
		t.Fatalf("LoadConfig(env) error = %v", err)
	}
	if cfg.CacheSize != 2 {
		t.Errorf("$%s CacheSize = %d, want 2", EnvConfig, cfg.CacheSize)
	}

	if cfg, err = LoadConfig(flagPath); err != nil {
		t.Fatalf("LoadConfig(flag) error = %v", err)
	}
	if cfg.CacheSize != 3 {
		t.Errorf("flag CacheSize = %d, want 3", cfg.CacheSize)
	}
}

func TestLoadConfigEmptyFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig(empty) error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadConfig(empty) = %+v, want defaults", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.yaml"), "failed to open config"},
		{"invalid yaml", writeConfig(t, "cache_size: [1, 2\n"), "failed to parse config"},
		{"unknown field", writeConfig(t, "page_size: 4096\n"), "failed to parse config"},
		{"bad log level", writeConfig(t, "log_level: loud\n"), "unknown log level"},
		{"bad log format", writeConfig(t, "log_format: xml\n"), "unknown log format"},
		{"bad output", writeConfig(t, "output: csv\n"), "unknown output format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.path)
			if err == nil {
				t.Fatal("LoadConfig() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("LoadConfig() error = %v, want %q", err, tt.wantMsg)
			}
		})
	}

	t.Run("missing env file", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "gone.yaml"))
		if _, err := LoadConfig(""); !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("LoadConfig() error = %v, want fs.ErrNotExist", err)
		}
	})
}

func TestLoadConfigNoUserDir(t *testing.T) {
	isolate(t)
	userConfigDir = func() (string, error) { return "", errors.New("no home") }

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
}
