package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/cascade/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the release-cascade command-line application.
func main() {
	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.NewApplication(cli.WithContext(signalContext)).Execute()
	stop()
	if executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
