package main

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

var configCmd = cli.Command{
	Name:    "config",
	Aliases: []string{"cfg"},
	Usage:   "change sensor parameters",
	Subcommands: []*cli.Command{
		&configGainCmd,
		&configTimeCmd,
		&configLimitsCmd,
	},
}

var configGainCmd = cli.Command{
	Name:      "gain",
	Usage:     "set the analog gain",
	ArgsUsage: "<1x|4x|16x|60x>",
	Flags:     sensorFlags(),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		gain, err := tcs34725.ParseGain(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		err = sensor.SetGain(ctx, gain)
		if err != nil {
			return console.Exit(1, "error setting gain: %s", console.Red(err))
		}
		console.Printf("%s gain set to %s\n", console.PictoKey, console.White(gain))
		return nil
	},
}

var configTimeCmd = cli.Command{
	Name:      "time",
	Usage:     "set the RGBC integration time",
	ArgsUsage: "<2.4ms|24ms|50ms|101ms|154ms|700ms>",
	Flags:     sensorFlags(),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		t, err := tcs34725.ParseIntegrationTime(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		err = sensor.SetIntegrationTime(ctx, t)
		if err != nil {
			return console.Exit(1, "error setting integration time: %s", console.Red(err))
		}
		console.Printf("%s integration time set to %s (%s per cycle)\n", console.PictoKey, console.White(t), console.White(t.Duration()))
		return nil
	},
}

var configLimitsCmd = cli.Command{
	Name:      "limits",
	Usage:     "set the clear channel interrupt thresholds",
	ArgsUsage: "<low> <high>",
	Flags:     sensorFlags(),
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		low, err := strconv.ParseInt(c.Args().Get(0), 0, 16)
		if err != nil {
			return console.Exit(1, "could not parse low threshold: %s", console.Red(err))
		}
		high, err := strconv.ParseInt(c.Args().Get(1), 0, 16)
		if err != nil {
			return console.Exit(1, "could not parse high threshold: %s", console.Red(err))
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		err = sensor.SetInterruptLimits(ctx, int16(low), int16(high))
		if err != nil {
			return console.Exit(1, "error setting limits: %s", console.Red(err))
		}
		console.Printf("%s interrupt limits set to %s..%s\n", console.PictoKey, console.White(low), console.White(high))
		return nil
	},
}
