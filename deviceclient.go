package tcs34725

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DeviceClient implements Transport over a raw Bus. Register reads follow the
// common I2C pointer convention: the register address is written first, then
// the data bytes are read back. When write coalescing is enabled, writes are
// queued and only hit the bus on the next WaitForWriteCompletions (or before
// a read, to avoid read-after-write hazards).
//
// When attached to a multiplexer, every transaction is preceded by a channel
// select on the upstream device.
type DeviceClient struct {
	mx sync.Mutex

	bus  Bus
	addr byte

	mux     Multiplexer
	channel Channel

	engaged bool
	closed  bool

	coalescing bool
	pending    [][]byte

	retryLimit int

	logging bool
	log     *slog.Logger
}

var _ Transport = &DeviceClient{}
var _ Multiplexable = &DeviceClient{}

func NewDeviceClient(bus Bus, addr byte) *DeviceClient {
	return &DeviceClient{
		bus:        bus,
		addr:       addr,
		retryLimit: 1,
		log:        slog.Default(),
	}
}

func (c *DeviceClient) Engage(_ context.Context) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.engaged = true
	if c.logging {
		c.log.Debug("transport engaged", "addr", fmt.Sprintf("0x%02X", c.addr))
	}
	return nil
}

func (c *DeviceClient) Disengage(ctx context.Context) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.engaged {
		return nil
	}
	if err := c.flush(ctx); err != nil {
		return fmt.Errorf("could not flush pending writes: %w", err)
	}
	c.engaged = false
	_ = c.bus.Release(ctx)
	if c.logging {
		c.log.Debug("transport disengaged", "addr", fmt.Sprintf("0x%02X", c.addr))
	}
	return nil
}

func (c *DeviceClient) Close(ctx context.Context) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.engaged = false
	c.pending = nil
	_ = c.bus.Release(ctx)
	if c.logging {
		c.log.Debug("transport closed", "addr", fmt.Sprintf("0x%02X", c.addr))
	}
	return nil
}

func (c *DeviceClient) Read8(ctx context.Context, addr byte) (byte, error) {
	buf, err := c.ReadBlock(ctx, addr, 1)
	if err != nil {
		return 0x00, err
	}
	return buf[0], nil
}

func (c *DeviceClient) ReadBlock(ctx context.Context, addr byte, count int) ([]byte, error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	if err := c.usable(); err != nil {
		return nil, err
	}
	// queued writes must reach the bus before a dependent read
	if err := c.flush(ctx); err != nil {
		return nil, fmt.Errorf("could not flush pending writes: %w", err)
	}
	if err := c.selectChannel(ctx); err != nil {
		return nil, err
	}
	if err := c.transmit(ctx, []byte{addr}); err != nil {
		return nil, fmt.Errorf("%w: could not set register pointer 0x%02X: %w", ErrTransport, addr, err)
	}
	buf := make([]byte, count)
	if err := c.bus.ReadFromAddr(ctx, c.addr, buf); err != nil {
		return nil, fmt.Errorf("%w: could not read register 0x%02X: %w", ErrTransport, addr, err)
	}
	if c.logging {
		c.log.Debug("i2c read", "reg", fmt.Sprintf("0x%02X", addr), "data", fmt.Sprintf("% X", buf))
	}
	return buf, nil
}

func (c *DeviceClient) Write8(ctx context.Context, addr byte, value byte) error {
	return c.WriteBlock(ctx, addr, []byte{value})
}

func (c *DeviceClient) WriteBlock(ctx context.Context, addr byte, data []byte) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, addr)
	frame = append(frame, data...)
	if c.coalescing {
		c.pending = append(c.pending, frame)
		return nil
	}
	if err := c.flush(ctx); err != nil {
		return fmt.Errorf("could not flush pending writes: %w", err)
	}
	if err := c.selectChannel(ctx); err != nil {
		return err
	}
	if err := c.transmit(ctx, frame); err != nil {
		return fmt.Errorf("%w: could not write register 0x%02X: %w", ErrTransport, addr, err)
	}
	if c.logging {
		c.log.Debug("i2c write", "reg", fmt.Sprintf("0x%02X", addr), "data", fmt.Sprintf("% X", data))
	}
	return nil
}

func (c *DeviceClient) WaitForWriteCompletions(ctx context.Context) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if err := c.usable(); err != nil {
		return err
	}
	return c.flush(ctx)
}

func (c *DeviceClient) SetAddress(addr byte) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.closed {
		return ErrClosed
	}
	if addr > 0x7F {
		return fmt.Errorf("address 0x%02X out of 7-bit range", addr)
	}
	c.addr = addr
	return nil
}

func (c *DeviceClient) Address() byte {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.addr
}

func (c *DeviceClient) EnableWriteCoalescing(on bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.coalescing = on
}

func (c *DeviceClient) SetLogging(on bool) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.logging = on
}

func (c *DeviceClient) SetLoggingTag(tag string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.log = slog.Default().With("device", tag)
}

// AttachToMultiplexer binds this client to a channel of an upstream
// multiplexer. Callers sharing one multiplexer between several clients must
// serialize transactions externally; channel selection is shared bus state.
func (c *DeviceClient) AttachToMultiplexer(mux Multiplexer, ch Channel) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.closed {
		return ErrClosed
	}
	if ch > 7 {
		return fmt.Errorf("multiplexer channel %d out of range", ch)
	}
	c.mux = mux
	c.channel = ch
	return nil
}

func (c *DeviceClient) usable() error {
	if c.closed {
		return ErrClosed
	}
	if !c.engaged {
		return ErrNotEngaged
	}
	return nil
}

func (c *DeviceClient) selectChannel(ctx context.Context) error {
	if c.mux == nil {
		return nil
	}
	if err := c.mux.Select(ctx, c.channel); err != nil {
		return fmt.Errorf("could not select multiplexer channel %d: %w", c.channel, err)
	}
	return nil
}

// flush transmits queued writes in issue order. Assumes the lock is held.
func (c *DeviceClient) flush(ctx context.Context) error {
	for len(c.pending) > 0 {
		frame := c.pending[0]
		if err := c.selectChannel(ctx); err != nil {
			return err
		}
		if err := c.transmit(ctx, frame); err != nil {
			return fmt.Errorf("%w: could not write register 0x%02X: %w", ErrTransport, frame[0], err)
		}
		c.pending = c.pending[1:]
	}
	return nil
}

func (c *DeviceClient) transmit(ctx context.Context, frame []byte) error {
	var err error
	for i := c.retryLimit; i > 0; i-- {
		err = c.bus.WriteToAddr(ctx, c.addr, frame)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrBusBusy) {
			return err
		}
		// try to release the bus
		_ = c.bus.Release(ctx)
	}
	return err
}
