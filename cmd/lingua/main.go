package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		// A canceled context means the user interrupted the run; the cause
		// was already reported.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "lingua:", err)
		}
		os.Exit(1)
	}
}
