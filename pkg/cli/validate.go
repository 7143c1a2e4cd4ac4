package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/keep-runner/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check scenario files without opening a browser",
	ArgsUsage: "<scenario-file-or-folder>...",
	Description: `Parse scenario files, resolve runScenario references and check
views and colors. Without arguments the scenarios listed in keep-runner.yaml
are checked.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only include scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Exclude scenarios with these tags",
		},
	},
	Action: validateScenarios,
}

func validateScenarios(c *cli.Context) error {
	if err := loadEnvFile(c.String("env-file")); err != nil {
		return err
	}

	paths := c.Args().Slice()
	include := c.StringSlice("include-tags")
	exclude := c.StringSlice("exclude-tags")
	if len(paths) == 0 || len(include) == 0 || len(exclude) == 0 {
		ws, err := loadWorkspace(c.String("config"))
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			paths = ws.Scenarios
		}
		include = tagsOr(include, ws.IncludeTags)
		exclude = tagsOr(exclude, ws.ExcludeTags)
	}
	if len(paths) == 0 {
		return fmt.Errorf("at least one scenario file or folder is required")
	}

	result := validator.New(include, exclude).Validate(paths...)
	if !result.IsValid() {
		printValidationErrors(result.Errors)
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	for _, path := range result.TestCases {
		fmt.Printf("  %s✓%s %s\n", color(colorGreen), color(colorReset), path)
	}
	fmt.Printf("\n%d scenario(s) valid\n", len(result.TestCases))
	return nil
}

func printValidationErrors(errs []error) {
	fmt.Fprintf(os.Stderr, "Validation errors:\n")
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  - %v\n", err)
	}
}
