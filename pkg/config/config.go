// Package config handles configuration for keep-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/keep-runner/pkg/core"
)

// Driver names.
const (
	DriverRod       = "rod"
	DriverWebDriver = "webdriver"
)

// FileNames are the workspace config files looked up by LoadFromDir, in order.
var FileNames = []string{"keep-runner.yaml", "keep-runner.yml"}

// Config represents the workspace configuration (keep-runner.yaml).
type Config struct {
	BaseURL      string `yaml:"baseURL"`
	Driver       string `yaml:"driver"`       // rod (default) or webdriver
	WebDriverURL string `yaml:"webdriverURL"` // required for the webdriver driver

	Browser  BrowserConfig  `yaml:"browser"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`

	// Scenario selection
	Scenarios   []string `yaml:"scenarios"`   // Scenario files, directories or globs
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	Env map[string]string `yaml:"env"` // Variables visible to ${...} in scenarios

	Output    string `yaml:"output"`    // Report directory
	Artifacts string `yaml:"artifacts"` // failure | always | never
}

// BrowserConfig controls the launched browser.
type BrowserConfig struct {
	Name        string   `yaml:"name"` // chrome or firefox (webdriver only)
	Headless    bool     `yaml:"headless"`
	Binary      string   `yaml:"binary"`
	UserDataDir string   `yaml:"userDataDir"`
	Args        []string `yaml:"args"`
}

// TimeoutsConfig holds wait bounds in milliseconds. Zero keeps the default.
type TimeoutsConfig struct {
	Locate       int `yaml:"locate"`
	Appear       int `yaml:"appear"`
	Affordance   int `yaml:"affordance"`
	Navigation   int `yaml:"navigation"`
	Absence      int `yaml:"absence"`
	ArchiveCheck int `yaml:"archiveCheck"`
	PinCheck     int `yaml:"pinCheck"`
	PageLoad     int `yaml:"pageLoad"`
	PollInterval int `yaml:"pollInterval"`
}

// Artifact capture modes.
const (
	ArtifactsFailure = "failure"
	ArtifactsAlways  = "always"
	ArtifactsNever   = "never"
)

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Driver == "" {
		c.Driver = DriverRod
	}
	if c.Output == "" {
		c.Output = "reports"
	}
	if c.Artifacts == "" {
		c.Artifacts = ArtifactsFailure
	}
	if len(c.Scenarios) == 0 {
		c.Scenarios = []string{"scenarios"}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Driver, validation.Required, validation.In(DriverRod, DriverWebDriver)),
		validation.Field(&c.WebDriverURL,
			validation.When(c.Driver == DriverWebDriver, validation.Required, is.URL)),
		validation.Field(&c.Artifacts, validation.In(ArtifactsFailure, ArtifactsAlways, ArtifactsNever)),
		validation.Field(&c.Browser),
		validation.Field(&c.Timeouts),
	); err != nil {
		return err
	}
	return nil
}

// Validate checks the browser section.
func (b BrowserConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Name, validation.In("chrome", "firefox")),
	)
}

// Validate rejects negative timeouts.
func (t TimeoutsConfig) Validate() error {
	nonNegative := validation.Min(0)
	return validation.ValidateStruct(&t,
		validation.Field(&t.Locate, nonNegative),
		validation.Field(&t.Appear, nonNegative),
		validation.Field(&t.Affordance, nonNegative),
		validation.Field(&t.Navigation, nonNegative),
		validation.Field(&t.Absence, nonNegative),
		validation.Field(&t.ArchiveCheck, nonNegative),
		validation.Field(&t.PinCheck, nonNegative),
		validation.Field(&t.PageLoad, nonNegative),
		validation.Field(&t.PollInterval, nonNegative),
	)
}

// ToTimeouts converts the millisecond values, keeping defaults for zero fields.
func (t TimeoutsConfig) ToTimeouts() core.Timeouts {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return core.Timeouts{
		Locate:       ms(t.Locate),
		Appear:       ms(t.Appear),
		Affordance:   ms(t.Affordance),
		Navigation:   ms(t.Navigation),
		Absence:      ms(t.Absence),
		ArchiveCheck: ms(t.ArchiveCheck),
		PinCheck:     ms(t.PinCheck),
		PageLoad:     ms(t.PageLoad),
		PollInterval: ms(t.PollInterval),
	}.WithDefaults()
}

// Load loads configuration from a file. ${VAR} references are expanded from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromDir looks for keep-runner.yaml or keep-runner.yml in the directory.
// It returns nil and no error when neither exists.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(dir, name)
		if _, err := os.Stat(configPath); err == nil {
			return Load(configPath)
		}
	}
	return nil, nil
}
