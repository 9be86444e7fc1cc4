package tcs34725

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// enableSettleDelay is the pause between powering the oscillator on and
// starting the RGBC cycle. The vendor sample settles for 3 ms; doubled here
// for oscillator start-up margin on slower hosts.
const enableSettleDelay = 6 * time.Millisecond

type driverState int

const (
	stateActive driverState = iota
	stateDisengaged
	stateClosed
)

// Driver drives a TAOS/ams TCS34725 RGBC color sensor.
// Typical usage:
//
//	client := tcs34725.NewDeviceClient(bus, tcs34725.DefaultAddress)
//	dev, err := tcs34725.New(ctx, client, tcs34725.DefaultParams())
//	r, err := dev.Red(ctx)
//
// All public operations serialize on the driver instance; one logical
// operation completes before the next may begin. Callers needing concurrency
// must run each driver on its own worker.
type Driver struct {
	mx        sync.Mutex
	transport Transport
	params    Params
	state     driverState
}

var _ ColorSensor = &Driver{}
var _ Multiplexable = &Driver{}

// New constructs a driver over the given transport: engages it, turns write
// coalescing off, applies the logging settings and initializes the device.
// A chip answering with the wrong part number fails the construction with
// *UnexpectedDeviceError; the transport is disengaged again in that case.
func New(ctx context.Context, transport Transport, params Params) (*Driver, error) {
	d := &Driver{transport: transport, params: params}
	if err := transport.Engage(ctx); err != nil {
		return nil, fmt.Errorf("could not engage transport: %w", err)
	}
	transport.EnableWriteCoalescing(false)
	transport.SetLogging(params.LoggingEnabled)
	if params.LoggingTag != "" {
		transport.SetLoggingTag(params.LoggingTag)
	}
	if err := d.Initialize(ctx, params); err != nil {
		_ = transport.Disengage(ctx)
		return nil, err
	}
	return d, nil
}

// Initialize probes the device identity and applies the given parameters.
// The ID register must read PartID; any other value fails with
// *UnexpectedDeviceError carrying the observed byte. On success the
// integration time and gain are written and the device is enabled.
func (d *Driver) Initialize(ctx context.Context, params Params) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	d.params = params
	id, err := d.readByte(ctx, RegDeviceID)
	if err != nil {
		return fmt.Errorf("could not read device id: %w", err)
	}
	if id != PartID {
		return &UnexpectedDeviceError{ID: id}
	}
	if err = d.setIntegrationTime(ctx, params.IntegrationTime); err != nil {
		return err
	}
	if err = d.setGain(ctx, params.Gain); err != nil {
		return err
	}
	return d.enable(ctx)
}

// Enable powers the device on and starts the RGBC cycle. The two enable
// writes are separated by a mandatory settle delay; cancelling the context
// during the delay returns ErrDelayInterrupted and may leave the device
// powered but not converting.
func (d *Driver) Enable(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.enable(ctx)
}

// Disable stops the RGBC cycle and powers the device down, preserving the
// remaining bits of the enable register.
func (d *Driver) Disable(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.disable(ctx)
}

// SetGain selects the analog gain applied to the RGBC converters.
func (d *Driver) SetGain(ctx context.Context, gain Gain) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.setGain(ctx, gain); err != nil {
		return err
	}
	d.params.Gain = gain
	return nil
}

// SetIntegrationTime selects the RGBC accumulation window.
func (d *Driver) SetIntegrationTime(ctx context.Context, t IntegrationTime) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.setIntegrationTime(ctx, t); err != nil {
		return err
	}
	d.params.IntegrationTime = t
	return nil
}

// SetInterruptLimits programs the clear channel interrupt thresholds.
func (d *Driver) SetInterruptLimits(ctx context.Context, low, high int16) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	if err := d.writeWord(ctx, RegAILT, low); err != nil {
		return fmt.Errorf("could not set low interrupt threshold: %w", err)
	}
	if err := d.writeWord(ctx, RegAIHT, high); err != nil {
		return fmt.Errorf("could not set high interrupt threshold: %w", err)
	}
	return nil
}

// GetState reads the enable register.
func (d *Driver) GetState(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0x00, err
	}
	return d.readByte(ctx, RegEnable)
}

// GetDeviceID reads the part number register.
func (d *Driver) GetDeviceID(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0x00, err
	}
	return d.readByte(ctx, RegDeviceID)
}

// GetStatus reads the device status register.
func (d *Driver) GetStatus(ctx context.Context) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0x00, err
	}
	return d.readByte(ctx, RegStatus)
}

// Red returns the red channel photon count as a 16-bit unsigned value.
func (d *Driver) Red(ctx context.Context) (int, error) {
	return d.color(ctx, RegRed)
}

// Green returns the green channel photon count as a 16-bit unsigned value.
func (d *Driver) Green(ctx context.Context) (int, error) {
	return d.color(ctx, RegGreen)
}

// Blue returns the blue channel photon count as a 16-bit unsigned value.
func (d *Driver) Blue(ctx context.Context) (int, error) {
	return d.color(ctx, RegBlue)
}

// Alpha returns the clear channel photon count as a 16-bit unsigned value.
func (d *Driver) Alpha(ctx context.Context) (int, error) {
	return d.color(ctx, RegClear)
}

// ARGB composes the four channels into a packed 32-bit color, 8 bits per
// channel, alpha in the most significant byte. The four register reads are
// not atomic; a color change mid-sequence can mix two samples.
func (d *Driver) ARGB(ctx context.Context) (uint32, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0, err
	}
	a, err := d.readColor(ctx, RegClear)
	if err != nil {
		return 0, err
	}
	r, err := d.readColor(ctx, RegRed)
	if err != nil {
		return 0, err
	}
	g, err := d.readColor(ctx, RegGreen)
	if err != nil {
		return 0, err
	}
	b, err := d.readColor(ctx, RegBlue)
	if err != nil {
		return 0, err
	}
	return uint32(a&0xFF)<<24 | uint32(r&0xFF)<<16 | uint32(g&0xFF)<<8 | uint32(b&0xFF), nil
}

// SetAddress retargets the transport to another 7-bit device address.
func (d *Driver) SetAddress(addr byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.transport.SetAddress(addr)
}

// GetAddress returns the 7-bit device address the transport targets.
func (d *Driver) GetAddress() (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0x00, err
	}
	return d.transport.Address(), nil
}

// EnableLed always fails. The illumination LED on this breakout is not
// software controllable over the bus; switch it through a digital channel
// instead. The failure is deliberate and happens before any bus traffic.
func (d *Driver) EnableLed(_ bool) error {
	return fmt.Errorf("%w: the LED is not controllable over the bus", ErrUnsupportedOperation)
}

// AttachToMultiplexer binds the underlying transport to a multiplexer
// channel, so every register transaction is routed through it.
func (d *Driver) AttachToMultiplexer(mux Multiplexer, ch Channel) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	t, ok := d.transport.(Multiplexable)
	if !ok {
		return fmt.Errorf("%w: transport cannot attach to a multiplexer", ErrUnsupportedOperation)
	}
	return t.AttachToMultiplexer(mux, ch)
}

// Close releases the transport permanently. Safe to call more than once;
// every other operation afterwards fails with ErrClosed.
func (d *Driver) Close(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.state == stateClosed {
		return nil
	}
	d.state = stateClosed
	return d.transport.Close(ctx)
}

// Name describes the device.
func (d *Driver) Name() string {
	return "AdaFruit TCS34725 color sensor"
}

// GetConnectionInfo describes the bus binding.
func (d *Driver) GetConnectionInfo() string {
	return fmt.Sprintf("I2C device on address 0x%02X", d.transport.Address())
}

// ReadByte reads a single register, command bit applied.
func (d *Driver) ReadByte(ctx context.Context, reg Register) (byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0x00, err
	}
	return d.readByte(ctx, reg)
}

// ReadBytes reads count consecutive registers starting at reg, command bit
// applied.
func (d *Driver) ReadBytes(ctx context.Context, reg Register, count int) ([]byte, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return nil, err
	}
	return d.readBytes(ctx, reg, count)
}

// WriteByte writes a single register, command bit applied. The write is
// committed to the bus by the time the call returns.
func (d *Driver) WriteByte(ctx context.Context, reg Register, value byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.writeByte(ctx, reg, value)
}

// WriteBytes writes consecutive registers starting at reg, command bit
// applied. The write is committed to the bus by the time the call returns.
func (d *Driver) WriteBytes(ctx context.Context, reg Register, data []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.writeBytes(ctx, reg, data)
}

// ReadSignedWord reads a two-byte register as a signed value, most
// significant byte first, matching WriteWord's wire order.
func (d *Driver) ReadSignedWord(ctx context.Context, reg Register) (int16, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0, err
	}
	buf, err := d.readBytes(ctx, reg, 2)
	if err != nil {
		return 0, fmt.Errorf("could not read %s: %w", reg, err)
	}
	return int16(binary.BigEndian.Uint16(buf)), nil
}

// WriteWord writes a two-byte register, most significant byte first. Note
// the asymmetry with the color registers, which transmit low byte first;
// both match the device's wire format.
func (d *Driver) WriteWord(ctx context.Context, reg Register, value int16) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	return d.writeWord(ctx, reg, value)
}

func (d *Driver) usable() error {
	if d.state != stateActive {
		return ErrClosed
	}
	return nil
}

func (d *Driver) enable(ctx context.Context) error {
	if err := d.writeByte(ctx, RegEnable, EnablePON); err != nil {
		return fmt.Errorf("could not power on: %w", err)
	}
	if err := d.settle(ctx, enableSettleDelay); err != nil {
		return err
	}
	if err := d.writeByte(ctx, RegEnable, EnablePON|EnableAEN); err != nil {
		return fmt.Errorf("could not start RGBC cycle: %w", err)
	}
	return nil
}

func (d *Driver) disable(ctx context.Context) error {
	reg, err := d.readByte(ctx, RegEnable)
	if err != nil {
		return fmt.Errorf("could not read enable register: %w", err)
	}
	if err = d.writeByte(ctx, RegEnable, reg&^(EnablePON|EnableAEN)); err != nil {
		return fmt.Errorf("could not power down: %w", err)
	}
	return nil
}

func (d *Driver) disengage(ctx context.Context) error {
	if d.state != stateActive {
		return nil
	}
	d.state = stateDisengaged
	if err := d.transport.Disengage(ctx); err != nil {
		return fmt.Errorf("could not disengage transport: %w", err)
	}
	return nil
}

func (d *Driver) setGain(ctx context.Context, gain Gain) error {
	if err := d.writeByte(ctx, RegControl, byte(gain)); err != nil {
		return fmt.Errorf("could not set gain: %w", err)
	}
	return nil
}

func (d *Driver) setIntegrationTime(ctx context.Context, t IntegrationTime) error {
	if err := d.writeByte(ctx, RegATime, byte(t)); err != nil {
		return fmt.Errorf("could not set integration time: %w", err)
	}
	return nil
}

func (d *Driver) color(ctx context.Context, reg Register) (int, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	if err := d.usable(); err != nil {
		return 0, err
	}
	return d.readColor(ctx, reg)
}

// readColor decodes a two-byte color register. Counts are transmitted low
// byte first and are never negative.
func (d *Driver) readColor(ctx context.Context, reg Register) (int, error) {
	buf, err := d.readBytes(ctx, reg, 2)
	if err != nil {
		return 0, fmt.Errorf("could not read %s: %w", reg, err)
	}
	return int(binary.LittleEndian.Uint16(buf)), nil
}

func (d *Driver) readByte(ctx context.Context, reg Register) (byte, error) {
	return d.transport.Read8(ctx, reg.Command())
}

func (d *Driver) readBytes(ctx context.Context, reg Register, count int) ([]byte, error) {
	return d.transport.ReadBlock(ctx, reg.Command(), count)
}

func (d *Driver) writeByte(ctx context.Context, reg Register, value byte) error {
	if err := d.transport.Write8(ctx, reg.Command(), value); err != nil {
		return err
	}
	return d.transport.WaitForWriteCompletions(ctx)
}

func (d *Driver) writeBytes(ctx context.Context, reg Register, data []byte) error {
	if err := d.transport.WriteBlock(ctx, reg.Command(), data); err != nil {
		return err
	}
	return d.transport.WaitForWriteCompletions(ctx)
}

func (d *Driver) writeWord(ctx context.Context, reg Register, value int16) error {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, uint16(value))
	return d.writeBytes(ctx, reg, buf)
}

func (d *Driver) settle(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrDelayInterrupted, ctx.Err())
	}
}
