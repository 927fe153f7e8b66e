package main

import (
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.LookupEnv))
}

// run executes one invocation and returns the process exit status.
func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, env lookupFunc) int {
	inv, err := parseArgs(args)
	if err != nil {
		newErrorPrinter(stderr, env).Error("Error: " + err.Error())
		return exitGeneric
	}
	if inv.help {
		printHelp(stdout)
		return exitOK
	}

	rt, err := setup(inv, stdin, stdout, stderr, env)
	if err != nil {
		newErrorPrinter(stderr, env).Error("Error: " + err.Error())
		return exitCode(err)
	}
	if err := dispatch(rt, inv); err != nil {
		rt.printer.Error("Error: " + err.Error())
		return exitCode(err)
	}
	return exitOK
}
