package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
	"github.com/mklimuk/tcs34725/mux"
)

var muxCmd = cli.Command{
	Name:  "mux",
	Usage: "control the TCA9548A channel multiplexer",
	Subcommands: []*cli.Command{
		&muxSelectCmd,
		&muxOffCmd,
		&muxStatusCmd,
	},
}

func muxFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Usage:   "bus adapter: mcp2221, generic, nanopi or gobot",
			Value:   "mcp2221",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Usage:   "i2c device path for the generic adapter",
			Value:   "/dev/i2c-1",
		},
		&cli.IntFlag{
			Name:    "bus",
			Aliases: []string{"b"},
			Usage:   "bus number for the gobot adapter (-1 uses the platform default)",
			Value:   -1,
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "multiplexer address (hex)",
			Value: "70",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

func openMux(c *cli.Context) (*mux.TCA9548A, func(), error) {
	bus, release, err := openBus(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := parseAddr(c.String("addr"))
	if err != nil {
		release()
		return nil, nil, err
	}
	return mux.NewTCA9548A(bus, addr), release, nil
}

var muxSelectCmd = cli.Command{
	Name:      "select",
	Aliases:   []string{"sel"},
	Usage:     "route the bus to one downstream channel",
	ArgsUsage: "<channel 0-7>",
	Flags:     muxFlags(),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected 1 argument, got %d", c.NArg())
		}
		ch, err := strconv.Atoi(c.Args().Get(0))
		if err != nil {
			return console.Exit(1, "could not parse channel: %s", console.Red(err))
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		m, release, err := openMux(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer release()
		err = m.Select(ctx, tcs34725.Channel(ch))
		if err != nil {
			return console.Exit(1, "error selecting channel: %s", console.Red(err))
		}
		console.Printf("%s channel %s selected\n", console.PictoPlug, console.White(ch))
		return nil
	},
}

var muxOffCmd = cli.Command{
	Name:  "off",
	Usage: "disconnect all downstream channels",
	Flags: muxFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		m, release, err := openMux(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer release()
		err = m.DisableAll(ctx)
		if err != nil {
			return console.Exit(1, "error disabling channels: %s", console.Red(err))
		}
		console.Printf("%s all channels disconnected\n", console.PictoPlug)
		return nil
	},
}

var muxStatusCmd = cli.Command{
	Name:  "status",
	Usage: "read the channel selection register",
	Flags: muxFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		m, release, err := openMux(c)
		if err != nil {
			return console.Exit(1, "bus error: %s", console.Red(err))
		}
		defer release()
		control, err := m.Selected(ctx)
		if err != nil {
			return console.Exit(1, "error reading selection: %s", console.Red(err))
		}
		console.Printf("%s control %s, channels %s\n", console.PictoPlug, console.White(hexByte(control)), console.White(decodeChannels(control)))
		return nil
	},
}

func decodeChannels(control byte) string {
	var channels []string
	for ch := 0; ch < 8; ch++ {
		if control&(1<<ch) != 0 {
			channels = append(channels, strconv.Itoa(ch))
		}
	}
	if len(channels) == 0 {
		return "none"
	}
	return strings.Join(channels, ",")
}
