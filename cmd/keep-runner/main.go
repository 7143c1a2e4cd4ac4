// Command keep-runner runs YAML note scenarios in a browser.
package main

import "github.com/devicelab-dev/keep-runner/pkg/cli"

func main() {
	cli.Execute()
}
