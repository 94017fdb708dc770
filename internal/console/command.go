package console

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUsage = errors.New("bad command usage")

// Command is one parsed operator line.
type Command struct {
	Name   string
	Args   []string
	Assign map[string]string // player=value pairs for bid/result
}

var usage = map[string]string{
	"new":    "new <player> <player> ...",
	"bid":    "bid <player>=<n> ...",
	"bonus":  "bonus <player> <category>",
	"result": "result <player>=<n> ...",
}

// Usage returns the usage line for a command name.
func Usage(name string) string { return usage[name] }

// Parse splits a line into a command. Names are case-insensitive; player
// names keep their case.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}
	cmd := Command{Name: strings.ToLower(strings.TrimPrefix(fields[0], "/")), Args: fields[1:]}

	switch cmd.Name {
	case "new":
		if len(cmd.Args) == 0 {
			return cmd, fmt.Errorf("%w: %s", ErrUsage, usage["new"])
		}
	case "bonus":
		if len(cmd.Args) != 2 {
			return cmd, fmt.Errorf("%w: %s", ErrUsage, usage["bonus"])
		}
	case "bid", "result":
		assign, err := parseAssignments(cmd.Args)
		if err != nil {
			return cmd, fmt.Errorf("%w: %s", ErrUsage, usage[cmd.Name])
		}
		cmd.Assign = assign
	}
	return cmd, nil
}

// parseAssignments reads "name=value" tokens. A repeated name keeps the last value.
func parseAssignments(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, ErrUsage
	}
	out := make(map[string]string, len(args))
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, ErrUsage
		}
		out[name] = value
	}
	return out, nil
}
