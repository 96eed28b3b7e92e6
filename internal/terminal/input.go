// Package terminal handles raw user input.
package terminal

import (
	"bufio"
	"os"
	"strings"
)

// ReadUserInput reads a line of input from the user
func ReadUserInput() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	// Trim whitespace and newline
	return strings.TrimSpace(input), nil
}

// SplitCommand splits a slash command into its name and argument rest.
func SplitCommand(input string) (cmd string, rest string) {
	fields := strings.SplitN(strings.TrimSpace(input), " ", 2)
	cmd = fields[0]
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}
	return cmd, rest
}
