package mux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mklimuk/tcs34725"
)

const DefaultTCA9548AAddress = 0x70

// TCA9548A drives an 8-channel I2C switch. Writing a control byte with bit N
// set routes downstream traffic to channel N; several downstream devices
// with colliding addresses can share one physical bus this way, as long as
// one channel is selected before each transaction.
//
// The switch is shared bus state. Clients bound to different channels of the
// same switch must serialize their transactions externally.
type TCA9548A struct {
	mx         sync.Mutex
	transport  tcs34725.Bus
	address    byte
	retryLimit int
}

var _ tcs34725.Multiplexer = &TCA9548A{}

func NewTCA9548A(bus tcs34725.Bus, address byte) *TCA9548A {
	return &TCA9548A{retryLimit: 1, transport: bus, address: address}
}

// Select routes downstream traffic to the given channel.
func (m *TCA9548A) Select(ctx context.Context, ch tcs34725.Channel) error {
	if ch > 7 {
		return fmt.Errorf("channel %d out of range", ch)
	}
	return m.writeControl(ctx, 1<<ch)
}

// DisableAll disconnects every downstream segment.
func (m *TCA9548A) DisableAll(ctx context.Context) error {
	return m.writeControl(ctx, 0x00)
}

// Selected reads the control register back, one bit per routed channel.
func (m *TCA9548A) Selected(ctx context.Context) (byte, error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	buf := make([]byte, 1)
	if err := m.transport.ReadFromAddr(ctx, m.address, buf); err != nil {
		return 0x00, fmt.Errorf("could not read mux control register: %w", err)
	}
	return buf[0], nil
}

func (m *TCA9548A) writeControl(ctx context.Context, control byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	var err error
	for i := m.retryLimit; i > 0; i-- {
		err = m.transport.WriteToAddr(ctx, m.address, []byte{control})
		if err == nil {
			return nil
		}
		if !errors.Is(err, tcs34725.ErrBusBusy) {
			return fmt.Errorf("could not write mux control register: %w", err)
		}
		// try to release the bus
		_ = m.transport.Release(ctx)
	}
	return fmt.Errorf("could not write mux control register (retry limit reached): %w", err)
}
