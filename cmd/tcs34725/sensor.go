package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/adapter"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
	"github.com/mklimuk/tcs34725/i2c"
	"github.com/mklimuk/tcs34725/mux"
)

// sensorFlags are shared by every command that talks to the sensor.
func sensorFlags() []cli.Flag {
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
			Usage: "sensor address (hex)",
			Value: "29",
		},
		&cli.StringFlag{
			Name:    "gain",
			Aliases: []string{"g"},
			Usage:   "analog gain: 1x, 4x, 16x or 60x",
			Value:   "1x",
		},
		&cli.StringFlag{
			Name:    "time",
			Aliases: []string{"t"},
			Usage:   "integration time: 2.4ms, 24ms, 50ms, 101ms, 154ms or 700ms",
			Value:   "2.4ms",
		},
		&cli.StringFlag{
			Name:  "mux",
			Usage: "TCA9548A multiplexer address (hex); empty when wired directly",
		},
		&cli.IntFlag{
			Name:    "channel",
			Aliases: []string{"c"},
			Usage:   "multiplexer channel the sensor sits on",
		},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	}
}

func parseAddr(s string) (byte, error) {
	if len(s) == 1 {
		s = "0" + s
	}
	bytes, err := hex.DecodeString(s)
	if err != nil || len(bytes) != 1 {
		return 0, fmt.Errorf("could not decode address %q", s)
	}
	return bytes[0], nil
}

// openBus builds the bus selected with --adapter. The returned function
// releases whatever the adapter holds (HID handle, file descriptor, gobot
// connections).
func openBus(c *cli.Context) (tcs34725.Bus, func(), error) {
	switch c.String("adapter") {
	case "mcp2221":
		return adapter.NewMCP2221(), func() {}, nil
	case "gobot":
		npi := nanopi.NewNeoAdaptor()
		err := npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := adapter.NewGobotBus(npi, c.Int("bus"))
		return bus, func() {
			_ = bus.Close()
			_ = npi.I2cBusAdaptor.Finalize()
		}, nil
	case "generic", "nanopi":
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, fmt.Errorf("bus open error: %w", err)
		}
		err = bus.SetSpeed(400 * physic.KiloHertz)
		if err != nil {
			console.Warnf("could not set bus speed: %s", err)
		}
		return bus, func() { _ = bus.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q", c.String("adapter"))
}

// openSensor opens the bus, binds the device client (behind the multiplexer
// when --mux is set) and initializes the sensor with the requested gain and
// integration time.
func openSensor(ctx context.Context, c *cli.Context) (*tcs34725.Driver, func(), error) {
	bus, release, err := openBus(c)
	if err != nil {
		return nil, nil, err
	}
	addr, err := parseAddr(c.String("addr"))
	if err != nil {
		release()
		return nil, nil, err
	}
	client := tcs34725.NewDeviceClient(bus, addr)
	if m := c.String("mux"); m != "" {
		muxAddr, err := parseAddr(m)
		if err != nil {
			release()
			return nil, nil, err
		}
		err = client.AttachToMultiplexer(mux.NewTCA9548A(bus, muxAddr), tcs34725.Channel(c.Int("channel")))
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("could not attach to multiplexer: %w", err)
		}
	}
	params := tcs34725.DefaultParams()
	params.Address = addr
	params.LoggingEnabled = c.Bool("verbose")
	params.Gain, err = tcs34725.ParseGain(c.String("gain"))
	if err != nil {
		release()
		return nil, nil, err
	}
	params.IntegrationTime, err = tcs34725.ParseIntegrationTime(c.String("time"))
	if err != nil {
		release()
		return nil, nil, err
	}
	sensor, err := tcs34725.New(ctx, client, params)
	if err != nil {
		release()
		return nil, nil, err
	}
	return sensor, func() {
		_ = sensor.Close(context.Background())
		release()
	}, nil
}
