package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/keep-runner/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// captureRunConfig parses args with the run command's flags and returns
// the resolved configuration without starting a browser.
func captureRunConfig(t *testing.T, args ...string) (*RunConfig, error) {
	t.Helper()
	var got *RunConfig
	var gotErr error
	app := &cli.App{
		Name:  "keep-runner",
		Flags: GlobalFlags,
		Commands: []*cli.Command{{
			Name:  "capture",
			Flags: runCommand.Flags,
			Action: func(c *cli.Context) error {
				got, gotErr = buildRunConfig(c)
				return nil
			},
		}},
	}
	if err := app.Run(append([]string{"keep-runner", "capture"}, args...)); err != nil {
		t.Fatalf("app.Run: %v", err)
	}
	return got, gotErr
}

func TestResolveOutputDir_Default(t *testing.T) {
	dir, err := resolveOutputDir("", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(dir, "reports/") {
		t.Errorf("expected dir to start with reports/, got %s", dir)
	}
	parts := strings.Split(dir, "/")
	if len(parts) != 2 {
		t.Errorf("expected reports/<timestamp>, got %s", dir)
	}
}

func TestResolveOutputDir_CustomOutput(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(dir, "my-reports/") {
		t.Errorf("expected dir to start with my-reports/, got %s", dir)
	}
}

func TestResolveOutputDir_Flatten(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir != "my-reports" {
		t.Errorf("expected my-reports, got %s", dir)
	}
}

func TestResolveOutputDir_FlattenWithoutOutput(t *testing.T) {
	_, err := resolveOutputDir("", true)
	if err == nil {
		t.Error("expected error when flatten is used without output")
	}
}

func TestParseEnvVars(t *testing.T) {
	env := parseEnvVars([]string{"USER=test", "QUERY=a=b", "broken", ""})
	if len(env) != 2 {
		t.Fatalf("expected 2 vars, got %v", env)
	}
	if env["USER"] != "test" {
		t.Errorf("USER = %q", env["USER"])
	}
	if env["QUERY"] != "a=b" {
		t.Errorf("QUERY = %q, want value with equals kept", env["QUERY"])
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1500, "1.5s"},
		{59999, "60.0s"},
		{61000, "1m 1s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	names := map[string]bool{}
	for _, f := range GlobalFlags {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{"config", "env-file", "verbose", "log-level", "no-ansi"} {
		if !names[want] {
			t.Errorf("missing global flag %q", want)
		}
	}
}

func TestBuildRunConfig_FlagsOverrideWorkspace(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "keep-runner.yaml", `
baseURL: https://a.test/
driver: webdriver
webdriverURL: http://127.0.0.1:4444
includeTags: [nightly]
env:
  A: "1"
  B: "1"
`)
	out := filepath.Join(dir, "out")

	cfg, err := captureRunConfig(t,
		"--config", cfgPath,
		"--base-url", "https://b.test/",
		"-e", "B=2",
		"--output", out, "--flatten",
		"--include-tags", "smoke",
		"--headless",
		"pin.yaml",
	)
	if err != nil {
		t.Fatalf("buildRunConfig: %v", err)
	}
	if cfg.Workspace.BaseURL != "https://b.test/" {
		t.Errorf("BaseURL = %q", cfg.Workspace.BaseURL)
	}
	if cfg.Workspace.Driver != config.DriverWebDriver {
		t.Errorf("Driver = %q", cfg.Workspace.Driver)
	}
	if !cfg.Workspace.Browser.Headless {
		t.Error("expected headless")
	}
	if cfg.Env["A"] != "1" || cfg.Env["B"] != "2" {
		t.Errorf("Env = %v", cfg.Env)
	}
	if cfg.OutputDir != out {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, out)
	}
	if len(cfg.IncludeTags) != 1 || cfg.IncludeTags[0] != "smoke" {
		t.Errorf("IncludeTags = %v", cfg.IncludeTags)
	}
	if len(cfg.Paths) != 1 || cfg.Paths[0] != "pin.yaml" {
		t.Errorf("Paths = %v", cfg.Paths)
	}
}

func TestBuildRunConfig_WorkspaceScenarios(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "keep-runner.yaml", "baseURL: https://a.test/\nscenarios: [smoke, regression]\nexcludeTags: [slow]\n")

	cfg, err := captureRunConfig(t, "--config", cfgPath)
	if err != nil {
		t.Fatalf("buildRunConfig: %v", err)
	}
	if strings.Join(cfg.Paths, ",") != "smoke,regression" {
		t.Errorf("Paths = %v", cfg.Paths)
	}
	if len(cfg.ExcludeTags) != 1 || cfg.ExcludeTags[0] != "slow" {
		t.Errorf("ExcludeTags = %v", cfg.ExcludeTags)
	}
	if cfg.Workspace.Driver != config.DriverRod {
		t.Errorf("default driver = %q", cfg.Workspace.Driver)
	}
}

func TestBuildRunConfig_MissingBaseURL(t *testing.T) {
	_, err := captureRunConfig(t, "pin.yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("expected invalid configuration error, got %v", err)
	}
}

func TestBuildRunConfig_Profile(t *testing.T) {
	home := t.TempDir()
	config.ResetHome()
	t.Setenv("KEEP_RUNNER_HOME", home)
	t.Cleanup(config.ResetHome)

	cfg, err := captureRunConfig(t, "--base-url", "https://a.test/", "--profile", "work", "pin.yaml")
	if err != nil {
		t.Fatalf("buildRunConfig: %v", err)
	}
	want := filepath.Join(home, "profiles", "work")
	if cfg.Workspace.Browser.UserDataDir != want {
		t.Errorf("UserDataDir = %q, want %q", cfg.Workspace.Browser.UserDataDir, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("profile dir not created: %v", err)
	}
}

func TestBuildRunConfig_BadProfile(t *testing.T) {
	if _, err := captureRunConfig(t, "--base-url", "https://a.test/", "--profile", "../x", "pin.yaml"); err == nil {
		t.Error("expected error for invalid profile name")
	}
}

func TestProfilesCommand(t *testing.T) {
	config.ResetHome()
	t.Setenv("KEEP_RUNNER_HOME", t.TempDir())
	t.Cleanup(config.ResetHome)

	if _, err := config.EnsureProfileDir("work"); err != nil {
		t.Fatal(err)
	}
	if err := NewApp().Run([]string{"keep-runner", "profiles"}); err != nil {
		t.Fatalf("profiles: %v", err)
	}
}

func TestBuildRunConfig_EnvFile(t *testing.T) {
	const key = "KEEP_RUNNER_TEST_BASE"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	envPath := writeFile(t, dir, "test.env", key+"=https://env.test/\n")
	cfgPath := writeFile(t, dir, "keep-runner.yaml", "baseURL: ${"+key+"}\n")

	cfg, err := captureRunConfig(t, "--env-file", envPath, "--config", cfgPath, "pin.yaml")
	if err != nil {
		t.Fatalf("buildRunConfig: %v", err)
	}
	if cfg.Workspace.BaseURL != "https://env.test/" {
		t.Errorf("BaseURL = %q", cfg.Workspace.BaseURL)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pin.yaml", "- createNote: Trip\n- pinNote: Trip\n")

	if err := NewApp().Run([]string{"keep-runner", "validate", dir}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "- goTo: trash\n")

	err := NewApp().Run([]string{"keep-runner", "validate", dir})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestRunCommand_ValidationStopsBeforeBrowser(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "- unknownStep: x\n")
	out := filepath.Join(dir, "out")

	err := NewApp().Run([]string{"keep-runner", "run",
		"--base-url", "https://a.test/", "--output", out, "--flatten", bad})
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "keep-runner.log")); statErr != nil {
		t.Errorf("expected run log: %v", statErr)
	}
}

func TestCreateDriver_Unknown(t *testing.T) {
	ws := config.Default()
	ws.Driver = "safari"
	if _, err := createDriver(context.Background(), ws); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestBrowserName(t *testing.T) {
	ws := config.Default()
	if got := browserName(ws); got != "chromium" {
		t.Errorf("rod browser = %q", got)
	}
	ws.Driver = config.DriverWebDriver
	if got := browserName(ws); got != "chrome" {
		t.Errorf("webdriver default = %q", got)
	}
	ws.Browser.Name = "firefox"
	if got := browserName(ws); got != "firefox" {
		t.Errorf("webdriver firefox = %q", got)
	}
}
