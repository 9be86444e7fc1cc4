package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/tcs34725"
	"github.com/mklimuk/tcs34725/cmd/tcs34725/console"
)

// watchSettings mirrors the sensor flags so a deployment can keep its wiring
// in a file instead of a shell alias. Command line flags win over the file.
type watchSettings struct {
	Adapter  string `yaml:"adapter"`
	Device   string `yaml:"device"`
	Bus      *int   `yaml:"bus"`
	Addr     string `yaml:"addr"`
	Gain     string `yaml:"gain"`
	Time     string `yaml:"time"`
	Mux      string `yaml:"mux"`
	Channel  *int   `yaml:"channel"`
	Interval string `yaml:"interval"`
}

func applySettings(c *cli.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var s watchSettings
	err = yaml.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	values := map[string]string{
		"adapter":  s.Adapter,
		"device":   s.Device,
		"addr":     s.Addr,
		"gain":     s.Gain,
		"time":     s.Time,
		"mux":      s.Mux,
		"interval": s.Interval,
	}
	if s.Bus != nil {
		values["bus"] = strconv.Itoa(*s.Bus)
	}
	if s.Channel != nil {
		values["channel"] = strconv.Itoa(*s.Channel)
	}
	for name, value := range values {
		if value == "" || c.IsSet(name) {
			continue
		}
		err = c.Set(name, value)
		if err != nil {
			return fmt.Errorf("invalid %s in %s: %w", name, path, err)
		}
	}
	return nil
}

var watchCmd = cli.Command{
	Name:    "watch",
	Aliases: []string{"w"},
	Usage:   "read color samples until interrupted",
	Flags: append(sensorFlags(),
		&cli.DurationFlag{
			Name:    "interval",
			Aliases: []string{"i"},
			Usage:   "delay between samples",
			Value:   time.Second,
		},
		&cli.StringFlag{
			Name:    "settings",
			Aliases: []string{"s"},
			Usage:   "yaml file with sensor wiring and sampling settings",
		},
	),
	Action: func(c *cli.Context) error {
		if path := c.String("settings"); path != "" {
			err := applySettings(c, path)
			if err != nil {
				return console.Exit(1, "could not load settings: %s", console.Red(err))
			}
		}
		ctx := console.SetVerbose(context.Background(), c.Bool("verbose"))
		sensor, release, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		defer release()

		var listeners tcs34725.ListenerList
		listeners.Register(sensor)

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(signals)

		sample, err := readSample(ctx, sensor)
		if err != nil {
			return console.Exit(1, "error reading color: %s", console.Red(err))
		}
		printSample(sample)

		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for {
			select {
			case sig := <-signals:
				console.Printf("%s %s\n", console.PictoFinish, sig)
				// SIGTERM closes the sensor for good, SIGINT only parks it
				if sig == syscall.SIGTERM {
					err = listeners.NotifyShutdown(ctx)
				} else {
					err = listeners.NotifyStop(ctx)
				}
				if err != nil {
					return console.Exit(1, "shutdown error: %s", console.Red(err))
				}
				return nil
			case <-ticker.C:
				sample, err = readSample(ctx, sensor)
				if err != nil {
					return console.Exit(1, "error reading color: %s", console.Red(err))
				}
				printSample(sample)
			}
		}
	},
}
