package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Run      RunCmd           `cmd:"" help:"Run a scenario and report summary statistics"`
	Serve    ServeCmd         `cmd:"" help:"Run a scenario and stream tick reports over WebSocket"`
	Validate ValidateCmd      `cmd:"" help:"Check a scenario file without running it"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("evodyn"),
		kong.Description("Stochastic strategy-revision dynamics for two-population bimatrix games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
