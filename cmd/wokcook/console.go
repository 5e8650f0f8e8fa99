package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/wokai/wokcook/internal/display"
)

// console is the user-facing surface of a cooking session: the Bubble Tea
// UI on a terminal, plain lines otherwise.
type console interface {
	Printf(format string, a ...any)
	PrintChat(text string)
	PrintStep(text string)
	PrintInstruction(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintHeard(text string)
	Refresh()
	InputChan() <-chan string
}

var (
	_ console = (*display.UI)(nil)
	_ console = (*lineConsole)(nil)
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// lineConsole reads commands line by line and prints without styling.
type lineConsole struct {
	out     io.Writer
	inputCh chan string
}

func newLineConsole(in io.Reader, out io.Writer) *lineConsole {
	c := &lineConsole{out: out, inputCh: make(chan string)}
	go func() {
		defer close(c.inputCh)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			c.inputCh <- sc.Text()
		}
	}()
	return c
}

func (c *lineConsole) Printf(format string, a ...any) {
	fmt.Fprintf(c.out, format+"\n", a...)
}

func (c *lineConsole) PrintChat(text string) { fmt.Fprintln(c.out, "assistant: "+text) }
func (c *lineConsole) PrintStep(text string) { fmt.Fprintln(c.out, "== "+text+" ==") }
func (c *lineConsole) PrintInstruction(text string) { fmt.Fprintln(c.out, "   "+text) }
func (c *lineConsole) PrintHint(text string) { fmt.Fprintln(c.out, "   "+text) }
func (c *lineConsole) PrintUrgent(text string) { fmt.Fprintln(c.out, "!! "+text) }
func (c *lineConsole) PrintHeard(text string) { fmt.Fprintln(c.out, "heard: "+text) }
func (c *lineConsole) Refresh() {}
func (c *lineConsole) InputChan() <-chan string { return c.inputCh }
