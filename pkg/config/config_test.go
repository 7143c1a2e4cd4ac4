package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "keep-runner.yaml", `
baseURL: https://keep.google.com/
driver: webdriver
webdriverURL: http://localhost:4444
browser:
  name: firefox
  headless: true
  args: ["--window-size=1280,800"]
timeouts:
  locate: 2500
  pinCheck: 1000
scenarios:
  - "scenarios/smoke/*.yaml"
includeTags:
  - smoke
excludeTags:
  - wip
env:
  LABEL: Work
output: out
artifacts: always
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BaseURL != "https://keep.google.com/" {
		t.Errorf("baseURL = %q", cfg.BaseURL)
	}
	if cfg.Driver != DriverWebDriver || cfg.WebDriverURL != "http://localhost:4444" {
		t.Errorf("driver = %q, webdriverURL = %q", cfg.Driver, cfg.WebDriverURL)
	}
	if cfg.Browser.Name != "firefox" || !cfg.Browser.Headless || len(cfg.Browser.Args) != 1 {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != "scenarios/smoke/*.yaml" {
		t.Errorf("scenarios = %v", cfg.Scenarios)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("expected includeTags [smoke], got %v", cfg.IncludeTags)
	}
	if len(cfg.ExcludeTags) != 1 || cfg.ExcludeTags[0] != "wip" {
		t.Errorf("expected excludeTags [wip], got %v", cfg.ExcludeTags)
	}
	if cfg.Env["LABEL"] != "Work" {
		t.Errorf("env = %v", cfg.Env)
	}
	if cfg.Output != "out" || cfg.Artifacts != ArtifactsAlways {
		t.Errorf("output = %q, artifacts = %q", cfg.Output, cfg.Artifacts)
	}

	timeouts := cfg.Timeouts.ToTimeouts()
	if timeouts.Locate != 2500*time.Millisecond {
		t.Errorf("locate = %v", timeouts.Locate)
	}
	if timeouts.PinCheck != time.Second {
		t.Errorf("pinCheck = %v", timeouts.PinCheck)
	}
	if timeouts.Appear != 10*time.Second {
		t.Errorf("appear should keep its default, got %v", timeouts.Appear)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "keep-runner.yaml", `baseURL: http://localhost:8080/`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Driver != DriverRod {
		t.Errorf("driver = %q, want rod", cfg.Driver)
	}
	if cfg.Artifacts != ArtifactsFailure {
		t.Errorf("artifacts = %q", cfg.Artifacts)
	}
	if cfg.Output != "reports" {
		t.Errorf("output = %q", cfg.Output)
	}
	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != "scenarios" {
		t.Errorf("scenarios = %v", cfg.Scenarios)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("KEEP_TEST_URL", "https://keep.example.com/")
	path := writeConfig(t, t.TempDir(), "keep-runner.yaml", `baseURL: ${KEEP_TEST_URL}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://keep.example.com/" {
		t.Errorf("baseURL = %q", cfg.BaseURL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"missing baseURL", `driver: rod`, "baseURL"},
		{"unknown driver", "baseURL: http://localhost/\ndriver: selenium", "driver"},
		{"webdriver without url", "baseURL: http://localhost/\ndriver: webdriver", "webdriverURL"},
		{"bad artifacts", "baseURL: http://localhost/\nartifacts: sometimes", "artifacts"},
		{"negative timeout", "baseURL: http://localhost/\ntimeouts:\n  locate: -1", "locate"},
		{"unknown browser", "baseURL: http://localhost/\nbrowser:\n  name: safari", "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "keep-runner.yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name %s", err, tt.field)
			}
		})
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/keep-runner.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "keep-runner.yaml", `scenarios: [invalid yaml`)

	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir_Yml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "keep-runner.yml", `baseURL: http://localhost:9000/`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil || cfg.BaseURL != "http://localhost:9000/" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "keep-runner.yaml", `baseURL: http://yaml.local/`)
	writeConfig(t, dir, "keep-runner.yml", `baseURL: http://yml.local/`)

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "http://yaml.local/" {
		t.Errorf("expected keep-runner.yaml to win, got %s", cfg.BaseURL)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Driver != DriverRod || cfg.Artifacts != ArtifactsFailure {
		t.Errorf("Default() = %+v", cfg)
	}
	if got := cfg.Timeouts.ToTimeouts().Locate; got != 5*time.Second {
		t.Errorf("default locate = %v", got)
	}
}
