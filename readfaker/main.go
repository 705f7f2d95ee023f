// readfaker simulates nanopore reads. Read lengths and quality profiles are
// drawn from an empirical model of a real read set, bases from a reference
// genome, and sequencing errors follow the per-base quality.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

var log = logging.MustGetLogger("readfaker")

var logFormat = logging.MustStringFormatter(`%{time:15:04:05.000} [%{level:.4s}] %{message}`)

func setupLogging(verbose, quiet bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, logFormat))

	switch {
	case quiet:
		leveled.SetLevel(logging.WARNING, "")
	case verbose:
		leveled.SetLevel(logging.DEBUG, "")
	default:
		leveled.SetLevel(logging.INFO, "")
	}

	logging.SetBackend(leveled)
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("readfaker version %s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func main() {
	rootCmd := simulateCommand()
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(modelCommand())
	rootCmd.AddCommand(configCommand())
	rootCmd.AddCommand(versionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
