package params

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// TerminalPrompter asks on a line-oriented console. A blank line accepts the
// pre-filled value; "q" or end of input cancels.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (t *TerminalPrompter) Ask(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if p.Message != "" {
		fmt.Fprintln(t.out, p.Message)
	}
	fmt.Fprintf(t.out, "%s [%d..%d] (default %s, q to cancel): ", p.Title, p.Min, p.Max, p.Value)

	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", ErrCancelled
	}

	line = strings.TrimSpace(line)
	switch {
	case strings.EqualFold(line, "q"):
		return "", ErrCancelled
	case line == "":
		return p.Value, nil
	}
	return line, nil
}
