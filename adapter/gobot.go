package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/tcs34725"
)

// GobotBus adapts a gobot I2C adaptor to the Bus interface. Connections are
// opened per device address on first use and cached, so one GobotBus can
// carry the sensor and the multiplexer at the same time.
type GobotBus struct {
	mx          sync.Mutex
	connector   i2c.Connector
	bus         int
	connections map[byte]i2c.Connection
}

var _ tcs34725.Bus = &GobotBus{}

// NewGobotBus wraps a board adaptor. Pass a negative bus number to use the
// adaptor's default bus.
func NewGobotBus(connector i2c.Connector, bus int) *GobotBus {
	if bus < 0 {
		bus = connector.DefaultI2cBus()
	}
	return &GobotBus{
		connector:   connector,
		bus:         bus,
		connections: make(map[byte]i2c.Connection),
	}
}

func (b *GobotBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c address %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from i2c address %#x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c address %#x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to i2c address %#x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *GobotBus) Release(ctx context.Context) error {
	return nil
}

// Close drops every cached connection.
func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, conn := range b.connections {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close connection to %#x: %w", addr, err))
		}
		delete(b.connections, addr)
	}
	return errors.Join(errs...)
}

func (b *GobotBus) connection(address byte) (i2c.Connection, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if conn, ok := b.connections[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.bus)
	if err != nil {
		return nil, fmt.Errorf("could not connect to i2c address %#x: %w", address, err)
	}
	b.connections[address] = conn
	return conn, nil
}
