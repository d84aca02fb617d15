package main

import (
	"os"

	"github.com/eclipse-thym/thym/packages/thym-ctl/cmd"
	"github.com/eclipse-thym/thym/packages/thym-ctl/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(errors.GetExitCode(err))
	}
}
