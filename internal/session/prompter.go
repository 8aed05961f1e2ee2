package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter asks the operator for the next identity to enroll. io.EOF means
// no more input and ends the session like the quit command.
type Prompter interface {
	ReadName(ctx context.Context) (string, error)
}

// LinePrompter reads names line by line, typically from stdin
type LinePrompter struct {
	lines  chan lineResult
	out    io.Writer
	prompt string
}

type lineResult struct {
	line string
	err  error
}

// NewLinePrompter starts reading in from a background goroutine so that a
// pending read never holds up cancellation
func NewLinePrompter(in io.Reader, out io.Writer, quitCommand string) *LinePrompter {
	p := &LinePrompter{
		lines:  make(chan lineResult),
		out:    out,
		prompt: fmt.Sprintf("Enter your name or '%s' to quit: ", quitCommand),
	}

	go func() {
		defer close(p.lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			p.lines <- lineResult{line: scanner.Text()}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		p.lines <- lineResult{err: err}
	}()

	return p
}

func (p *LinePrompter) ReadName(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, p.prompt)

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out)
		return "", ctx.Err()
	case res, ok := <-p.lines:
		if !ok {
			fmt.Fprintln(p.out)
			return "", io.EOF
		}
		if res.err != nil {
			fmt.Fprintln(p.out)
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}
