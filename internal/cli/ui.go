package cli

import "github.com/fatih/color"

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
)

func statusOK(msg string) string   { return success("✓") + " " + msg }
func statusFail(msg string) string { return failure("✗") + " " + msg }
