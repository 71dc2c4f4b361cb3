package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/term"

	"github.com/esimov/markup/utils"
)

const HelpBanner = `
┌┬┐┌─┐┬─┐┬┌─┬ ┬┌─┐
│││├─┤├┬┘├┴┐│ │├─┘
┴ ┴┴ ┴┴└─┴ ┴└─┘┴

Annotation metadata codec and layer ordering tool.
    Version: %s

Usage: markup [-config file.yaml] <command> [flags]

Commands:
`

// Version indicates the current build version.
var Version string

// spinner holds the running progress indicator, if any.
var spinner atomic.Pointer[utils.Spinner]

func usage() {
	fmt.Fprintf(os.Stderr, HelpBanner, Version)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr, "\nRun `markup <command> -h` for the flags of a command.")
}

func main() {
	log.SetFlags(0)
	utils.SetColor(term.IsTerminal(int(os.Stderr.Fd())))

	configPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf(utils.DecorateText("%v", utils.ErrorMessage), err)
	}

	// Capture CTRL-C signal and restore the cursor visibility back.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		if s := spinner.Load(); s != nil {
			s.RestoreCursor()
		}
		os.Exit(1)
	}()

	if err := run(context.Background(), newEnv(cfg), flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf(
			utils.DecorateText("Error: %s", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}
}

// run dispatches args to the matching command.
func run(ctx context.Context, e *env, args []string) error {
	name := args[0]
	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, e, args[1:])
		}
	}
	usage()
	return fmt.Errorf("unknown command %q", name)
}
