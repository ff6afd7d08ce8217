package main

import (
	"fmt"
	"os"
)

const (
	exitCodeFailure = 1
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeFailure)
	}
}
