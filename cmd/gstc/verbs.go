package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/corner4world/gstd-1.x/pkg/gstc"
)

func verbCommands() []*cli.Command {
	commands := make([]*cli.Command, 0, len(gstc.Verbs))
	for _, verb := range gstc.Verbs {
		commands = append(commands, &cli.Command{
			Name:      verb.Name,
			Usage:     verb.Usage,
			ArgsUsage: argsUsage(verb),
			Category:  category(verb.Name),
			Action:    runVerb(verb),
		})
	}
	return commands
}

func runVerb(verb gstc.Verb) cli.ActionFunc {
	return func(c *cli.Context) error {
		_, client, err := newClient(c)
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := interruptContext()
		defer cancel()

		res, err := verb.Call(ctx, client, c.Args().Slice())
		if err != nil {
			return cli.Exit(err.Error(), exitCode(err))
		}
		return printResult(res)
	}
}

func argsUsage(verb gstc.Verb) string {
	parts := make([]string, 0, len(verb.Args))
	for i, a := range verb.Args {
		if i < verb.Required {
			parts = append(parts, "<"+a+">")
		} else {
			parts = append(parts, "["+a+"]")
		}
	}
	return strings.Join(parts, " ")
}

func category(name string) string {
	if idx := strings.Index(name, "_"); idx != -1 {
		switch prefix := name[:idx]; prefix {
		case "list":
			return "pipeline"
		default:
			return prefix
		}
	}
	return ""
}

// exitCode maps return codes onto a process status: daemon codes as is,
// client statuses offset past them.
func exitCode(err error) int {
	return exitCodeFor(gstc.Code(err))
}

func exitCodeFor(code int) int {
	if code < 0 {
		return 100 - code
	}
	if code == 0 {
		return 1
	}
	return code
}
