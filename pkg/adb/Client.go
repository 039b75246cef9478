// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

// Package adb runs the adb program.
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/navwar/adbsync/pkg/fs"
)

const (
	DefaultProgram = "adb"
)

type NewClientInput struct {
	// Program is the adb binary.  Defaults to "adb" on the PATH.
	Program string
	// Flags are passed to adb with a single dash, e.g., "d" becomes "-d".
	Flags []string
	// Options are formatted as OPTION=VALUE and passed to adb as "-OPTION VALUE".
	Options []string
	// Console receives the output of transfers if not nil.
	Console io.Writer
	Logger  fs.Logger
}

// Client runs adb commands with a fixed set of global flags and options.
type Client struct {
	program string
	args    []string
	console io.Writer
	logger  fs.Logger
}

func NewClient(input *NewClientInput) (*Client, error) {
	program := input.Program
	if len(program) == 0 {
		program = DefaultProgram
	}
	args := make([]string, 0, len(input.Flags)+(2*len(input.Options)))
	for _, flag := range input.Flags {
		args = append(args, "-"+flag)
	}
	for _, option := range input.Options {
		parts := strings.SplitN(option, "=", 2)
		if len(parts) != 2 || len(parts[0]) == 0 {
			return nil, fmt.Errorf("invalid adb option %q, expecting OPTION=VALUE", option)
		}
		args = append(args, "-"+parts[0], parts[1])
	}
	return &Client{
		program: program,
		args:    args,
		console: input.Console,
		logger:  input.Logger,
	}, nil
}

// Command returns the full command line for the adb arguments.
func (c *Client) Command(args ...string) []string {
	return append(append([]string{c.program}, c.args...), args...)
}

func (c *Client) debug(command []string) {
	if c.logger != nil {
		c.logger.Debug("Running command", map[string]interface{}{
			"command": strings.Join(command, " "),
		})
	}
}

// Shell runs the arguments with "adb shell" and returns the lines of the
// combined output.  The exit code of the remote command is ignored, since
// callers interpret the output.
func (c *Client) Shell(ctx context.Context, args ...string) ([]string, error) {
	command := c.Command(append([]string{"shell"}, args...)...)
	c.debug(command)
	output, err := exec.CommandContext(ctx, command[0], command[1:]...).CombinedOutput()
	if err != nil {
		var exitError *exec.ExitError
		if !errors.As(err, &exitError) {
			return nil, fmt.Errorf("error running %q: %w", strings.Join(command, " "), err)
		}
	}
	return SplitLines(output), nil
}

// Transfer runs an adb transfer command, such as push or pull.
// If the client has a console, then the output is copied to the console and
// no lines are returned.  A non-zero exit code is returned as a TransferError.
func (c *Client) Transfer(ctx context.Context, args ...string) ([]string, error) {
	command := c.Command(args...)
	c.debug(command)
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	output := &bytes.Buffer{}
	if c.console != nil {
		cmd.Stdout = c.console
		cmd.Stderr = c.console
	} else {
		cmd.Stdout = output
		cmd.Stderr = output
	}
	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			exitCode = exitError.ExitCode()
		}
		return nil, &fs.TransferError{
			Command:  command,
			ExitCode: exitCode,
			Err:      err,
		}
	}
	if c.console != nil {
		return nil, nil
	}
	return SplitLines(output.Bytes()), nil
}

// ShowsProgress returns true if transfer output is copied to a console.
func (c *Client) ShowsProgress() bool {
	return c.console != nil
}

// SplitLines splits the output into lines without line endings.
// Empty lines are dropped.
func SplitLines(output []byte) []string {
	lines := []string{}
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimRight(line, "\r\n")
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}
