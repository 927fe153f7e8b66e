// Package prompt asks the operator yes/no questions on a terminal.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter answers confirmation questions.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// Terminal reads answers from In. When In is an *os.File that is not a
// terminal every question is answered "no".
type Terminal struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

func (t *Terminal) Confirm(question string) (bool, error) {
	if f, ok := t.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(t.Out, "%s [y/N]: (stdin is not a terminal, answering no)\n", question)
		return false, nil
	}
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}

	fmt.Fprintf(t.Out, "%s [y/N]: ", question)
	line, err := t.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return isYes(line), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
