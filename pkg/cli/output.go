package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/devicelab-dev/keep-runner/pkg/core"
	"github.com/devicelab-dev/keep-runner/pkg/executor"
	"github.com/devicelab-dev/keep-runner/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printSetupStep(msg string) {
	fmt.Printf("  %s⏳ %s%s\n", color(colorCyan), msg, color(colorReset))
}

func printSetupSuccess(msg string) {
	fmt.Printf("  %s✓%s %s\n", color(colorGreen), color(colorReset), msg)
}

// Live progress callbacks

func onScenarioStart(idx, total int, name, file string) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s (%s)\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), name, color(colorReset), file)
	fmt.Println(strings.Repeat("─", 60))
}

func onStepComplete(depth, idx int, desc string, status core.StepStatus, durationMs int64, err error) {
	// Base indent (4 spaces) + 2 spaces per nesting level
	indent := strings.Repeat("  ", 2+depth)
	compound := strings.HasPrefix(desc, "runScenario:")
	durStr := formatDuration(durationMs)

	switch status {
	case core.StatusPassed:
		symbol, symbolColor, durColor := "✓", color(colorGreen), ""
		if durationMs >= slowThresholdMs && !compound {
			symbol, symbolColor, durColor = "⚠", color(colorYellow), color(colorYellow)
		}
		fmt.Printf("%s%s%s%s %s %s(%s)%s\n",
			indent, symbolColor, symbol, color(colorReset), desc, durColor, durStr, color(colorReset))
	case core.StatusSkipped:
		fmt.Printf("%s%s-%s %s (%s)\n", indent, color(colorCyan), color(colorReset), desc, durStr)
		printStepError(indent, err)
	default:
		fmt.Printf("%s%s✗%s %s (%s)\n", indent, color(colorRed), color(colorReset), desc, durStr)
		printStepError(indent, err)
	}
}

func printStepError(indent string, err error) {
	if err != nil {
		fmt.Printf("%s  %s╰─%s %v\n", indent, color(colorGray), color(colorReset), err)
	}
}

func onScenarioEnd(name string, status core.StepStatus, durationMs int64) {
	symbol, symbolColor := "✗", color(colorRed)
	switch status {
	case core.StatusPassed:
		symbol, symbolColor = "✓", color(colorGreen)
	case core.StatusSkipped:
		symbol, symbolColor = "-", color(colorCyan)
	}
	fmt.Printf("%s%s %s%s %s%s%s\n",
		symbolColor, symbol, color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
}

func printSummary(result *executor.RunResult) {
	totalSteps, passedSteps, failedSteps, skippedSteps := 0, 0, 0, 0
	for _, sr := range result.ScenarioResults {
		totalSteps += sr.StepsTotal
		passedSteps += sr.StepsPassed
		failedSteps += sr.StepsFailed
		skippedSteps += sr.StepsSkipped
	}

	fmt.Println()
	if passedSteps > 0 {
		fmt.Printf("  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(result.Duration))
	}
	if failedSteps > 0 {
		fmt.Printf("  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Printf("  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Println()

	tableWidth := 92
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Printf("  %-42s %6s %7s %6s %6s %6s %10s\n", "Scenario", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Println(strings.Repeat("─", tableWidth))

	for _, sr := range result.ScenarioResults {
		status, statusColor := statusLabel(sr.Status)

		name := sr.Name
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Printf("  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			name, statusColor, status, color(colorReset),
			sr.StepsTotal, sr.StepsPassed, sr.StepsFailed, sr.StepsSkipped,
			formatDuration(sr.Duration))
	}

	fmt.Println(strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedScenarios, result.TotalScenarios)
	statusColor := color(colorGreen)
	if result.FailedScenarios > 0 || result.ErroredScenarios > 0 {
		statusColor = color(colorRed)
	}
	fmt.Printf("  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(result.Duration))
	fmt.Println(strings.Repeat("═", tableWidth))
}

func statusLabel(s report.Status) (string, string) {
	switch s {
	case report.StatusPassed:
		return "✓ PASS", color(colorGreen)
	case report.StatusSkipped:
		return "- SKIP", color(colorCyan)
	case report.StatusErrored:
		return "! ERR", color(colorRed)
	default:
		return "✗ FAIL", color(colorRed)
	}
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
