// Command usa2d is the acquisition daemon for the 2D uSonic-2 sonic
// anemometer: `usa2d <serial_device> <config_path> [--debug]`, plus an
// `archive` subcommand for out-of-band columnar export.
package main

import (
	"fmt"
	"log"
	"os"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/urfave/cli/v2"

	"github.com/usonic/usa-acq"
	"github.com/usonic/usa-acq/archive"
	"github.com/usonic/usa-acq/cmd/internal/bootstrap"
)

func run(device, configPath string, debug bool) int {
	resources, err := bootstrap.Build(usa.TwoD, device, configPath, debug)
	if err != nil {
		if exitErr, ok := err.(*bootstrap.ExitError); ok {
			log.Println(exitErr.Err)
			return exitErr.Code
		}
		log.Println(err)
		return 1
	}
	defer resources.Close()

	if err := bootstrap.Run(resources); err != nil {
		resources.Logger.Errorw("acquisition loop terminated", "error", err)
		return 1
	}
	return 0
}

func runArchive(dataSet, outDir, configURI string) error {
	files, err := archive.FindRaw(dataSet, configURI)
	if err != nil {
		return err
	}

	var config *tiledb.Config
	if configURI == "" {
		config, err = tiledb.NewConfig()
	} else {
		config, err = tiledb.LoadConfig(configURI)
	}
	if err != nil {
		return err
	}
	defer config.Free()

	ctx, err := tiledb.NewContext(config)
	if err != nil {
		return err
	}
	defer ctx.Free()

	var failures int
	for _, f := range files {
		uri, err := archive.ExportRawFile(ctx, f, outDir)
		if err != nil {
			log.Printf("archive: %s: %v", f, err)
			failures++
			continue
		}
		log.Printf("archive: %s -> %s", f, uri)
	}
	if failures > 0 {
		return fmt.Errorf("archive: %d of %d raw files failed to export", failures, len(files))
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:      "usa2d",
		Usage:     "2D sonic anemometer acquisition daemon",
		ArgsUsage: "<serial_device> <config_path>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug"},
		},
		Action: func(cCtx *cli.Context) error {
			if cCtx.Args().Len() != 2 {
				os.Exit(1)
			}
			os.Exit(run(cCtx.Args().Get(0), cCtx.Args().Get(1), cCtx.Bool("debug")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "archive",
				Usage: "archive completed raw files into columnar TileDB arrays",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data-set", Required: true},
					&cli.StringFlag{Name: "out", Required: true},
					&cli.StringFlag{Name: "config-uri"},
				},
				Action: func(cCtx *cli.Context) error {
					return runArchive(cCtx.String("data-set"), cCtx.String("out"), cCtx.String("config-uri"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
