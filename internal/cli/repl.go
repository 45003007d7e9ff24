// Package cli is the interactive console front end.
package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/m2tx/toolchat/internal/agent"
)

// Sender runs one conversation turn.
type Sender interface {
	Send(ctx context.Context, prompt string) (*agent.TurnResult, error)
}

type REPL struct {
	sender  Sender
	in      io.Reader
	printer *Printer
}

func NewREPL(sender Sender, in io.Reader, printer *Printer) *REPL {
	return &REPL{sender: sender, in: in, printer: printer}
}

func isExit(line string) bool {
	switch strings.ToLower(line) {
	case "exit", "quit", "bye":
		return true
	}
	return false
}

// Run reads lines until an exit word, EOF or ctx ends. Every non-blank line is one turn.
func (r *REPL) Run(ctx context.Context) error {
	r.printer.Println("Assistant ready. Type 'exit' to quit.")
	r.printer.Println("")

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.printer.Prompt()
		if !scanner.Scan() {
			r.printer.Println("")
			r.printer.Println("Bye.")
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if isExit(line) {
			r.printer.Println("Goodbye!")
			return nil
		}
		if line == "" {
			continue
		}

		res, err := r.sender.Send(ctx, line)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			r.printer.Error(err)
		default:
			r.printer.Result(res)
		}
	}
}
