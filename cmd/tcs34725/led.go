package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tcs34725/adapter"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

// The breakout LED pin is not reachable over the bus; it has to be wired to
// one of the MCP2221 GP pins and driven from there.
var ledCmd = cli.Command{
	Name:  "led",
	Usage: "drive the breakout LED pin through an MCP2221 GPIO",
	Subcommands: []*cli.Command{
		&ledOnCmd,
		&ledOffCmd,
	},
}

func ledFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "pin",
			Aliases: []string{"p"},
			Usage:   "GP pin the LED line is wired to (0-3)",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

var ledOnCmd = cli.Command{
	Name:  "on",
	Flags: ledFlags(),
	Action: func(c *cli.Context) error {
		return setLed(c, 1)
	},
}

var ledOffCmd = cli.Command{
	Name:  "off",
	Flags: ledFlags(),
	Action: func(c *cli.Context) error {
		return setLed(c, 0)
	},
}

func setLed(c *cli.Context, value byte) error {
	ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
	pin := c.Int("pin")
	if pin < 0 || pin > 3 {
		return console.Exit(1, "pin %d out of range", pin)
	}
	a := adapter.NewMCP2221()
	params, err := a.GetGPIOParameters(ctx)
	if err != nil {
		return console.Exit(1, "adapter communication error: %s", console.Red(err))
	}
	configureOutput(&params, pin)
	err = a.SetGPIOParameters(ctx, params)
	if err != nil {
		return console.Exit(1, "could not configure pin %d: %s", pin, console.Red(err))
	}
	err = a.WriteGPIO(ctx, pin, value)
	if err != nil {
		return console.Exit(1, "could not drive pin %d: %s", pin, console.Red(err))
	}
	if value == 0 {
		console.Printf("%s led off (pin %d)\n", console.PictoBulb, pin)
	} else {
		console.Printf("%s led on (pin %d)\n", console.PictoBulb, pin)
	}
	return nil
}

// configureOutput flips a single pin to plain GPIO output, leaving the other
// designations as read from the adapter.
func configureOutput(params *adapter.MCP2221GPIOParameters, pin int) {
	switch pin {
	case 0:
		params.GPIO0Mode = adapter.GPIOModeOut
		params.GPIO0Designation = adapter.GPIOOperation
	case 1:
		params.GPIO1Mode = adapter.GPIOModeOut
		params.GPIO1Designation = adapter.GPIOOperation
	case 2:
		params.GPIO2Mode = adapter.GPIOModeOut
		params.GPIO2Designation = adapter.GPIOOperation
	case 3:
		params.GPIO3Mode = adapter.GPIOModeOut
		params.GPIO3Designation = adapter.GPIOOperation
	}
}
