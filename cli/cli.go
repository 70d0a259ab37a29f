// Package cli provides terminal I/O, output formatting, and command
// dispatch for the options picker.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/optionspicker/engine"
)

// CLI handles line-oriented terminal interaction.
type CLI struct {
	*Commands
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	return &CLI{
		Commands: NewCommands(eng),
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// Run reads commands until EOF or /quit: prompt, input, dispatch, output.
func (c *CLI) Run(ctx context.Context) {
	c.Engine.Tracker.OnSelecting(func(selecting bool) {
		if selecting {
			c.printLine("Spinning...")
		}
	})

	c.printLine(fmt.Sprintf("%d option(s) on the wheel. Type /help for commands.", c.Engine.Len()))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		cmd, ok := c.Resolve(input)
		if !ok {
			c.printLine("Nothing to repeat.")
			continue
		}

		reply := c.Exec(ctx, cmd)
		c.printReply(reply)
		if reply.Quit {
			return
		}
	}
}

func (c *CLI) printReply(r Reply) {
	for _, line := range r.Lines {
		if r.System {
			c.printSystem(line)
		} else {
			c.printLine(line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
