package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/keep-runner/pkg/config"
)

var profilesCommand = &cli.Command{
	Name:  "profiles",
	Usage: "List persistent browser profiles",
	Description: `Profiles live under <home>/profiles and are selected with run --profile.
Sign in once with a profile and later runs start authenticated.`,
	Action: func(c *cli.Context) error {
		names, err := config.ListProfiles()
		if err != nil {
			return fmt.Errorf("list profiles: %w", err)
		}
		if len(names) == 0 {
			fmt.Printf("No profiles in %s\n", config.GetProfileDir(""))
			return nil
		}
		for _, name := range names {
			fmt.Printf("  %s\t%s\n", name, config.GetProfileDir(name))
		}
		return nil
	},
}
