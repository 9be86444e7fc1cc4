package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

type colorSample struct {
	Clear int    `yaml:"clear"`
	Red   int    `yaml:"red"`
	Green int    `yaml:"green"`
	Blue  int    `yaml:"blue"`
	ARGB  string `yaml:"argb"`
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read one color sample",
	Flags: append(sensorFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text or yaml",
			Value:   "text",
		},
	),
	Action: func(c *cli.Context) error {
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()
		sample, err := readSample(ctx, sensor)
		if err != nil {
			return console.Exit(1, "error reading color: %s", console.Red(err))
		}
		if c.String("format") == "yaml" {
			enc := yaml.NewEncoder(os.Stdout)
			err = enc.Encode(sample)
			if err != nil {
				return console.Exit(1, "encoding error: %s", console.Red(err))
			}
			return nil
		}
		printSample(sample)
		return nil
	},
}

// readSample waits for the first completed integration cycle and collects all
// four channels.
func readSample(ctx context.Context, sensor *tcs34725.Driver) (colorSample, error) {
	err := waitForData(ctx, sensor)
	if err != nil {
		return colorSample{}, err
	}
	alpha, err := sensor.Alpha(ctx)
	if err != nil {
		return colorSample{}, err
	}
	red, err := sensor.Red(ctx)
	if err != nil {
		return colorSample{}, err
	}
	green, err := sensor.Green(ctx)
	if err != nil {
		return colorSample{}, err
	}
	blue, err := sensor.Blue(ctx)
	if err != nil {
		return colorSample{}, err
	}
	argb, err := sensor.ARGB(ctx)
	if err != nil {
		return colorSample{}, err
	}
	return colorSample{
		Clear: alpha,
		Red:   red,
		Green: green,
		Blue:  blue,
		ARGB:  fmt.Sprintf("%08X", argb),
	}, nil
}

// waitForData polls the status register until AVALID reports a completed
// cycle. Data registers read zero before that.
func waitForData(ctx context.Context, sensor *tcs34725.Driver) error {
	for {
		status, err := sensor.GetStatus(ctx)
		if err != nil {
			return err
		}
		if status&tcs34725.StatusAValid != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Millisecond):
		}
	}
}

func printSample(s colorSample) {
	console.Printf("%s  C %s  R %s  G %s  B %s  #%s\n",
		console.PictoPalette,
		console.White(s.Clear),
		console.Red(s.Red),
		console.Green(s.Green),
		console.Blue(s.Blue),
		console.Bold(s.ARGB))
}
