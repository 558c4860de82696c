package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Makepad-fr/amped/internal/cli"
)

func main() {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "config file (overrides $AMPED_CONFIG)")
	theme := flag.String("theme", "", "color theme: classic, neon or mono")
	flag.Usage = cli.PrintHelp
	flag.Parse()

	// Hand the remaining args to the CLI runner; no args opens the screen.
	code := cli.Run(flag.Args(), cli.Options{
		ConfigPath: *configPath,
		Theme:      *theme,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
