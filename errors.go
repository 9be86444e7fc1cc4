package tcs34725

import (
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

// ErrTransport is wrapped by transport implementations around low-level bus
// failures (NACK, timeout) so callers can match the class without knowing the
// adapter.
var ErrTransport = fmt.Errorf("transport failure")

// ErrClosed is returned by every operation invoked after Close.
var ErrClosed = fmt.Errorf("device is closed")

// ErrNotEngaged is returned by transport I/O attempted before Engage or after
// Disengage.
var ErrNotEngaged = fmt.Errorf("transport is not engaged")

// ErrUnsupportedOperation is returned by operations the hardware cannot
// perform, before any bus traffic happens.
var ErrUnsupportedOperation = fmt.Errorf("operation not supported by this device")

// ErrDelayInterrupted is returned when a mandatory settle delay is cut short
// by context cancellation. The device may be left partially configured.
var ErrDelayInterrupted = fmt.Errorf("settle delay interrupted")

// UnexpectedDeviceError reports that the chip answering on the configured
// address identified itself with the wrong part number.
type UnexpectedDeviceError struct {
	ID byte
}

func (e *UnexpectedDeviceError) Error() string {
	return fmt.Sprintf("unexpected device with id 0x%02X (want 0x%02X)", e.ID, PartID)
}
