// Package main is the entry point for the subsetcheck CLI.
package main

import "subsetcheck.dev/pkg/subsetcheck/cmd"

func main() {
	cmd.Execute()
}
