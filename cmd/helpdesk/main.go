package main

import (
	"fmt"
	"os"

	"helpdesk/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "helpdesk:", app.FormatError(err))
		os.Exit(app.ExitCode(err))
	}
}
