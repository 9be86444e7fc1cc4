package tcs34725

import (
	"context"
)

// Transport is the synchronous adapter the driver performs all device I/O
// through. Addresses passed to the I/O methods are wire addresses, command
// bit included; the driver takes care of the encoding.
//
// Implementations may buffer writes. A write is only guaranteed committed to
// the bus once WaitForWriteCompletions returns.
type Transport interface {
	// Engage acquires the underlying bus binding for this device.
	Engage(ctx context.Context) error
	// Disengage releases the binding. Idempotent, safe on an already
	// disengaged transport.
	Disengage(ctx context.Context) error
	// Close releases the transport permanently. Subsequent operations fail
	// with ErrClosed.
	Close(ctx context.Context) error

	// Read8 reads a single byte from the given wire address.
	Read8(ctx context.Context, addr byte) (byte, error)
	// ReadBlock reads count consecutive bytes starting at the given wire
	// address.
	ReadBlock(ctx context.Context, addr byte, count int) ([]byte, error)
	// Write8 enqueues a single-byte write to the given wire address.
	Write8(ctx context.Context, addr byte, value byte) error
	// WriteBlock enqueues a multi-byte write to the given wire address.
	WriteBlock(ctx context.Context, addr byte, data []byte) error
	// WaitForWriteCompletions blocks until every previously enqueued write
	// has been committed to the bus.
	WaitForWriteCompletions(ctx context.Context) error

	// SetAddress retargets the transport to another 7-bit device address
	// without recreating it.
	SetAddress(addr byte) error
	// Address returns the currently configured 7-bit device address.
	Address() byte

	// EnableWriteCoalescing toggles adapter-level write batching. With
	// coalescing off every write is transmitted as issued.
	EnableWriteCoalescing(on bool)
	// SetLogging toggles per-transaction logging.
	SetLogging(on bool)
	// SetLoggingTag labels this transport's log entries.
	SetLoggingTag(tag string)
}

// Channel selects one downstream segment of a multiplexed bus. Valid values
// are 0 through 7.
type Channel byte

// Multiplexer routes bus transactions to one of several downstream segments.
// Select must complete before the transaction that depends on it is issued.
type Multiplexer interface {
	Select(ctx context.Context, ch Channel) error
}

// Multiplexable is implemented by transports that can bind to a multiplexer
// channel. After a successful attach every transaction is preceded by a
// channel select, transparently to the register-level API. Rebinding
// overwrites the previous binding; there is no unbind.
type Multiplexable interface {
	AttachToMultiplexer(mux Multiplexer, ch Channel) error
}

// ColorSensor is the device-operations surface of the driver.
type ColorSensor interface {
	Red(ctx context.Context) (int, error)
	Green(ctx context.Context) (int, error)
	Blue(ctx context.Context) (int, error)
	Alpha(ctx context.Context) (int, error)
	ARGB(ctx context.Context) (uint32, error)
	GetState(ctx context.Context) (byte, error)
	GetDeviceID(ctx context.Context) (byte, error)
	EnableLed(on bool) error
	Close(ctx context.Context) error
}
