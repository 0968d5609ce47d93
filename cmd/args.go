package cmd

import (
	"strconv"

	"github.com/tclemos/docbench/benchmark"
)

// DefaultRepetition is used when no integer token is given.
const DefaultRepetition = 50

// ParseArgs classifies positional tokens: the last integer sets the
// repetition, the last non-integer sets the command. Unknown commands are
// accepted as-is.
func ParseArgs(args []string) (command string, repetition int) {
	command = benchmark.CommandQuery
	repetition = DefaultRepetition
	for _, a := range args {
		if r, err := strconv.Atoi(a); err == nil {
			repetition = r
			continue
		}
		command = a
	}
	return command, repetition
}
