// Command stockroom manages a product catalog kept in a CSV file.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/stockroom/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands render their own failures; only cobra's errors (unknown
	// command, missing flag, bad format) still need printing.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
