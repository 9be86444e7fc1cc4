package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

var deviceCmd = cli.Command{
	Name:    "device",
	Aliases: []string{"dev"},
	Usage:   "device identity and state",
	Subcommands: []*cli.Command{
		&deviceIDCmd,
		&deviceStateCmd,
		&deviceStatusCmd,
		&deviceInfoCmd,
	},
}

var deviceIDCmd = cli.Command{
	Name:  "id",
	Usage: "read the part number register",
	Flags: sensorFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		id, err := sensor.GetDeviceID(ctx)
		if err != nil {
			return console.Exit(1, "error reading device id: %s", console.Red(err))
		}
		console.Printf("%s device id %s\n", console.PictoPin, console.White(hexByte(id)))
		return nil
	},
}

var deviceStateCmd = cli.Command{
	Name:  "state",
	Usage: "read the enable register",
	Flags: sensorFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		state, err := sensor.GetState(ctx)
		if err != nil {
			return console.Exit(1, "error reading state: %s", console.Red(err))
		}
		console.Printf("%s state %s (%s)\n", console.PictoPin, console.White(hexByte(state)), decodeState(state))
		return nil
	},
}

var deviceStatusCmd = cli.Command{
	Name:  "status",
	Usage: "read the status register",
	Flags: sensorFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		status, err := sensor.GetStatus(ctx)
		if err != nil {
			return console.Exit(1, "error reading status: %s", console.Red(err))
		}
		console.Printf("%s status %s (%s)\n", console.PictoPin, console.White(hexByte(status)), decodeStatus(status))
		return nil
	},
}

var deviceInfoCmd = cli.Command{
	Name:  "info",
	Usage: "print the device description",
	Flags: sensorFlags(),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		console.Printf("%s\n", console.Bold(sensor.Name()))
		console.Printf("%s\n", sensor.GetConnectionInfo())
		return nil
	},
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}

func decodeState(state byte) string {
	var bits []string
	if state&tcs34725.EnablePON != 0 {
		bits = append(bits, "PON")
	}
	if state&tcs34725.EnableAEN != 0 {
		bits = append(bits, "AEN")
	}
	if state&tcs34725.EnableWEN != 0 {
		bits = append(bits, "WEN")
	}
	if state&tcs34725.EnableAIEN != 0 {
		bits = append(bits, "AIEN")
	}
	if len(bits) == 0 {
		return "powered down"
	}
	return strings.Join(bits, "|")
}

func decodeStatus(status byte) string {
	var bits []string
	if status&tcs34725.StatusAValid != 0 {
		bits = append(bits, "AVALID")
	}
	if status&tcs34725.StatusAInt != 0 {
		bits = append(bits, "AINT")
	}
	if len(bits) == 0 {
		return "no data yet"
	}
	return strings.Join(bits, "|")
}
