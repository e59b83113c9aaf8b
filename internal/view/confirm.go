package view

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TerminalConfirmer asks yes/no questions on the terminal. Anything other
// than y/yes counts as no.
type TerminalConfirmer struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewTerminalConfirmer(in io.Reader, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{in: bufio.NewScanner(in), out: out}
}

func (c *TerminalConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	if !c.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(c.in.Text()))
	return answer == "y" || answer == "yes"
}
