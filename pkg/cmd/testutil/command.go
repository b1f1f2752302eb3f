package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes a command with test context and returns what it wrote
// to stdout.
func RunCommand(t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()
	return RunCommandWithContext(context.Background(), t, command, args)
}

// RunCommandWithContext executes a command with a custom context
func RunCommandWithContext(ctx context.Context, t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()

	out := new(bytes.Buffer)

	// Create a test CLI app
	app := &cli.Command{
		Name:      "test",
		Writer:    out,
		ErrWriter: new(bytes.Buffer),
		Commands:  []*cli.Command{command},
	}

	// Prepend command name to args
	fullArgs := append([]string{"test", command.Name}, args...)

	err := app.Run(ctx, fullArgs)
	return out.String(), err
}

// RunApp executes a complete application (global flags included) and returns
// what it wrote to stdout and stderr.
func RunApp(t *testing.T, app *cli.Command, args []string) (string, string, error) {
	t.Helper()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	app.Writer = out
	app.ErrWriter = errOut

	err := app.Run(context.Background(), append([]string{app.Name}, args...))
	return out.String(), errOut.String(), err
}
