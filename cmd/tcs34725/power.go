package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

var enableCmd = cli.Command{
	Name:  "enable",
	Usage: "power the sensor on and start the RGBC cycle",
	Flags: sensorFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		err = sensor.Enable(ctx)
		if err != nil {
			return console.Exit(1, "error enabling sensor: %s", console.Red(err))
		}
		state, err := sensor.GetState(ctx)
		if err != nil {
			return console.Exit(1, "error reading state: %s", console.Red(err))
		}
		console.Printf("%s enabled, state %s (%s)\n", console.PictoBulb, console.White(hexByte(state)), decodeState(state))
		return nil
	},
}

var disableCmd = cli.Command{
	Name:  "disable",
	Usage: "stop the RGBC cycle and power the sensor down",
	Flags: append(sensorFlags(),
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	),
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			answer, err := console.YesOrNo("power down the sensor?")
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if answer != console.Yes {
				console.Printf("%s aborted\n", console.PictoStop)
				return nil
			}
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		err = sensor.Disable(ctx)
		if err != nil {
			return console.Exit(1, "error disabling sensor: %s", console.Red(err))
		}
		state, err := sensor.GetState(ctx)
		if err != nil {
			return console.Exit(1, "error reading state: %s", console.Red(err))
		}
		console.Printf("%s disabled, state %s (%s)\n", console.PictoStop, console.White(hexByte(state)), decodeState(state))
		return nil
	},
}
