package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/keep-runner/pkg/config"
	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/driver/cdp"
	"github.com/devicelab-dev/keep-runner/pkg/driver/webdriver"
	"github.com/devicelab-dev/keep-runner/pkg/executor"
	"github.com/devicelab-dev/keep-runner/pkg/logger"
	"github.com/devicelab-dev/keep-runner/pkg/report"
	"github.com/devicelab-dev/keep-runner/pkg/scenario"
	"github.com/devicelab-dev/keep-runner/pkg/session"
	"github.com/devicelab-dev/keep-runner/pkg/validator"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run scenarios against the notes application",
	ArgsUsage: "<scenario-file-or-folder>...",
	Description: `Run one or more scenario files in a browser.

Without arguments the scenarios listed in keep-runner.yaml are run.

Reports are generated in the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  keep-runner run scenarios/
  keep-runner run pin.yaml archive.yaml --headless

  # With environment variables
  keep-runner run scenarios/ -e PREFIX=smoke

  # With tag filtering
  keep-runner run scenarios/ --include-tags smoke

  # Against a Selenium server
  keep-runner run scenarios/ --driver webdriver --webdriver-url http://127.0.0.1:4444

  # Reuse a signed-in browser profile
  keep-runner run scenarios/ --profile work`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Environment variables (KEY=VALUE)",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude scenarios with these tags",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Application URL",
			EnvVars: []string{"KEEP_RUNNER_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "driver",
			Aliases: []string{"d"},
			Usage:   "Browser driver (rod, webdriver)",
		},
		&cli.StringFlag{
			Name:    "webdriver-url",
			Usage:   "WebDriver server URL (for the webdriver driver)",
			EnvVars: []string{"KEEP_RUNNER_WEBDRIVER_URL"},
		},
		&cli.StringFlag{
			Name:  "browser",
			Usage: "Browser for the webdriver driver (chrome, firefox)",
		},
		&cli.BoolFlag{
			Name:  "headless",
			Usage: "Run the browser without a window",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "Named persistent browser profile under the keep-runner home",
		},
		&cli.StringFlag{
			Name:  "artifacts",
			Usage: "Screenshot capture (failure, always, never)",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining scenarios after the first failure",
		},
	},
	Action: runScenarios,
}

// RunConfig is the resolved configuration of one run.
type RunConfig struct {
	Paths       []string
	Env         map[string]string
	IncludeTags []string
	ExcludeTags []string
	OutputDir   string
	StopOnFail  bool
	Verbose     bool
	LogLevel    string

	Workspace *config.Config // Merged workspace config and flags
}

func runScenarios(c *cli.Context) error {
	cfg, err := buildRunConfig(c)
	if err != nil {
		return err
	}
	return executeRun(cfg)
}

// buildRunConfig merges the workspace config with command-line flags.
// Flags win over the workspace file.
func buildRunConfig(c *cli.Context) (*RunConfig, error) {
	if err := loadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}

	ws, err := loadWorkspace(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("base-url") {
		ws.BaseURL = c.String("base-url")
	}
	if c.IsSet("driver") {
		ws.Driver = c.String("driver")
	}
	if c.IsSet("webdriver-url") {
		ws.WebDriverURL = c.String("webdriver-url")
	}
	if c.IsSet("browser") {
		ws.Browser.Name = c.String("browser")
	}
	if c.IsSet("headless") {
		ws.Browser.Headless = c.Bool("headless")
	}
	if c.IsSet("artifacts") {
		ws.Artifacts = c.String("artifacts")
	}
	if name := c.String("profile"); name != "" {
		dir, err := config.EnsureProfileDir(name)
		if err != nil {
			return nil, err
		}
		ws.Browser.UserDataDir = dir
	}
	if err := ws.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// CLI env overrides workspace env
	env := make(map[string]string)
	for k, v := range ws.Env {
		env[k] = v
	}
	for k, v := range parseEnvVars(c.StringSlice("env")) {
		env[k] = v
	}

	output := ws.Output
	if c.IsSet("output") {
		output = c.String("output")
	}
	outputDir, err := resolveOutputDir(output, c.Bool("flatten"))
	if err != nil {
		return nil, err
	}

	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = ws.Scenarios
	}

	return &RunConfig{
		Paths:       paths,
		Env:         env,
		IncludeTags: tagsOr(c.StringSlice("include-tags"), ws.IncludeTags),
		ExcludeTags: tagsOr(c.StringSlice("exclude-tags"), ws.ExcludeTags),
		OutputDir:   outputDir,
		StopOnFail:  c.Bool("stop-on-fail"),
		Verbose:     c.Bool("verbose"),
		LogLevel:    c.String("log-level"),
		Workspace:   ws,
	}, nil
}

// loadEnvFile loads path, or ./.env when path is empty and the file exists.
// Variables already set in the process environment are kept.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// loadWorkspace loads the config at path, the one in the working directory,
// or the defaults.
func loadWorkspace(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func tagsOr(flag, workspace []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return workspace
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: ./reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func executeRun(cfg *RunConfig) error {
	// 1. Create output directory
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	logPath := filepath.Join(cfg.OutputDir, "keep-runner.log")
	if err := logger.Init(logPath); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	if cfg.Verbose {
		logger.SetOutput(io.MultiWriter(logger.GetWriter(), os.Stderr))
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	ws := cfg.Workspace
	logger.Info("=== Run started ===")
	logger.Info("Output directory: %s", cfg.OutputDir)
	logger.Info("Base URL: %s", ws.BaseURL)
	logger.Info("Driver: %s", ws.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Validate and parse scenarios
	scenarios, err := loadScenarios(cfg.Paths, cfg.IncludeTags, cfg.ExcludeTags)
	if err != nil {
		logger.Error("Scenario validation failed: %v", err)
		return err
	}
	logger.Info("Validated %d scenario(s)", len(scenarios))

	// 4. Start the browser
	printSetupStep(fmt.Sprintf("Starting %s driver...", ws.Driver))
	drv, err := createDriver(ctx, ws)
	if err != nil {
		logger.Error("Failed to create driver: %v", err)
		return fmt.Errorf("failed to create driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.Warn("close driver: %v", err)
		}
	}()
	printSetupSuccess(fmt.Sprintf("Browser ready (%s)", browserName(ws)))

	// 5. Execute scenarios
	sess := session.New(drv, ws.BaseURL, ws.Timeouts.ToTimeouts())
	runner := executor.New(sess, executor.RunnerConfig{
		OutputDir:       cfg.OutputDir,
		StopOnFail:      cfg.StopOnFail,
		Artifacts:       executor.ArtifactsFor(ws.Artifacts),
		Env:             cfg.Env,
		RunnerVersion:   Version,
		DriverName:      ws.Driver,
		Browser:         browserName(ws),
		OnScenarioStart: onScenarioStart,
		OnStepComplete:  onStepComplete,
		OnScenarioEnd:   onScenarioEnd,
	})

	result, err := runner.Run(ctx, scenarios)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return err
	}
	logger.Info("Run completed: %d passed, %d failed, %d errored, %d skipped",
		result.PassedScenarios, result.FailedScenarios, result.ErroredScenarios, result.SkippedScenarios)

	// 6. Summary
	printSummary(result)
	fmt.Println("  Reports:")
	fmt.Printf("    JSON:   %s\n", filepath.Join(cfg.OutputDir, "report.json"))
	fmt.Printf("    Log:    %s\n", logPath)
	fmt.Println()

	if errors.Is(ctx.Err(), context.Canceled) {
		return cli.Exit("interrupted", 130)
	}
	if result.Status != report.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}

// loadScenarios validates paths and parses every selected scenario.
func loadScenarios(paths, includeTags, excludeTags []string) ([]*scenario.Scenario, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one scenario file or folder is required")
	}

	result := validator.New(includeTags, excludeTags).Validate(paths...)
	if !result.IsValid() {
		printValidationErrors(result.Errors)
		return nil, fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}
	if len(result.TestCases) == 0 {
		return nil, fmt.Errorf("no scenarios found")
	}

	fmt.Printf("\n%sSetup%s\n", color(colorBold), color(colorReset))
	fmt.Println(strings.Repeat("─", 40))
	printSetupSuccess(fmt.Sprintf("Found %d scenario(s)", len(result.TestCases)))

	scenarios := make([]*scenario.Scenario, 0, len(result.TestCases))
	for _, path := range result.TestCases {
		sc, err := scenario.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// createDriver starts the configured browser driver.
func createDriver(ctx context.Context, ws *config.Config) (core.Driver, error) {
	b := ws.Browser
	switch ws.Driver {
	case config.DriverRod:
		if b.UserDataDir != "" {
			if err := os.MkdirAll(b.UserDataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create profile dir: %w", err)
			}
		}
		d, err := cdp.New(ctx, cdp.Options{
			Headless:    b.Headless,
			Binary:      b.Binary,
			UserDataDir: b.UserDataDir,
			Args:        b.Args,
		})
		if err != nil {
			return nil, err
		}
		return d, nil

	case config.DriverWebDriver:
		args := b.Args
		if b.UserDataDir != "" && browserName(ws) == "chrome" {
			args = append(append([]string{}, args...), "--user-data-dir="+b.UserDataDir)
		}
		d, err := webdriver.New(ctx, webdriver.Options{
			ServerURL: ws.WebDriverURL,
			Browser:   b.Name,
			Headless:  b.Headless,
			Binary:    b.Binary,
			Args:      args,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown driver %q", ws.Driver)
}

func browserName(ws *config.Config) string {
	if ws.Driver == config.DriverRod {
		return "chromium"
	}
	if ws.Browser.Name == "" {
		return "chrome"
	}
	return ws.Browser.Name
}

func parseEnvVars(envs []string) map[string]string {
	result := make(map[string]string)
	for _, e := range envs {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
