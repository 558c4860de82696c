package ui

import (
	"fmt"
	"io"
	"os"
)

// Output streams; swapped in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func OK(msg string) {
	t := Current()
	fmt.Fprintln(Stdout, t.Success.Render(t.SymOK+" "+msg))
}

func Fail(msg string) {
	t := Current()
	fmt.Fprintln(Stderr, t.Error.Render(t.SymFail+" "+msg))
}

func Hint(msg string) {
	fmt.Fprintln(Stderr, Current().Muted.Render(msg))
}
