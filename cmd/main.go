package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"palog"
)

func main() {
	app := cli.NewApp()
	app.Name = "palog"
	app.Usage = "decode power analyzer log files and detect changepoints"
	app.ArgsUsage = "FILE [FILE...]"
	app.Flags = []cli.Flag{
		cli.Float64Flag{
			Name:  "skip, s",
			Usage: "skip the first `SECONDS` of the recording",
		},
		cli.Float64Flag{
			Name:  "limit, l",
			Usage: "keep only the first `SECONDS` of the recording",
		},
		cli.IntFlag{
			Name:  "samples",
			Usage: "target sample count for changepoint search",
			Value: 1000,
		},
		cli.StringFlag{
			Name:  "channel",
			Usage: "run changepoint detection only on channel `LABEL` (e.g. U1)",
		},
		cli.BoolFlag{
			Name:  "no-changepoints",
			Usage: "decode and report only, skip changepoint detection",
		},
		cli.StringFlag{
			Name:  "csv",
			Usage: "export the sample matrix to `PATH`",
		},
		cli.StringFlag{
			Name:  "json",
			Usage: "export channels and changepoints to `PATH`",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "verbose logging",
		},
	}
	app.Action = runAnalyze

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAnalyze(c *cli.Context) error {
	palog.InitLogger(c.Bool("debug"))

	if c.NArg() == 0 {
		return errors.New("no input files given")
	}
	if c.NArg() > 1 && (c.String("csv") != "" || c.String("json") != "") {
		return errors.New("--csv/--json only work with a single input file")
	}

	cfg := palog.DefaultConfig()
	cfg.Decode.SkipSeconds = c.Float64("skip")
	cfg.Decode.LimitSeconds = c.Float64("limit")
	cfg.Changepoint.NumSamples = c.Int("samples")
	cfg.Changepoint.Channel = c.String("channel")
	cfg.Changepoint.Enabled = !c.Bool("no-changepoints")

	// 批处理：单个文件失败不中断整批，最后统一报告
	failed := 0
	for _, path := range c.Args() {
		system := palog.NewAnalyzerSystem(cfg)

		if out := c.String("csv"); out != "" {
			sink, err := palog.NewCSVSink(out)
			if err != nil {
				return err
			}
			system.AddSink(sink)
		}
		if out := c.String("json"); out != "" {
			sink, err := palog.NewJSONSink(out)
			if err != nil {
				return err
			}
			system.AddSink(sink)
		}

		if err := system.Run(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Printf("== %s\n", path)
		system.PrintReport(os.Stdout)
	}

	if failed > 0 {
		return errors.Errorf("%d of %d file(s) failed", failed, c.NArg())
	}
	return nil
}
