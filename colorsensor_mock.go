package tcs34725

import (
	"context"
	"fmt"
)

// ColorBehaviorFunc defines the function signature for color readings.
// It returns the alpha (clear), red, green and blue channel counts.
type ColorBehaviorFunc func(ctx context.Context) (alpha, red, green, blue int, err error)

// MockColorSensor is a mock implementation of a color sensor that uses a
// behavior function to produce readings without requiring hardware.
//
// Example usage:
//
//	sensor := NewMockColorSensor(func(ctx context.Context) (int, int, int, int, error) {
//		return 0x200, 0x100, 0x80, 0x40, nil
//	})
type MockColorSensor struct {
	behavior ColorBehaviorFunc
	closed   bool
}

var _ ColorSensor = &MockColorSensor{}

// NewMockColorSensor creates a new mock color sensor with the given behavior
// function. The behavior function is called on every channel read.
func NewMockColorSensor(behavior ColorBehaviorFunc) *MockColorSensor {
	return &MockColorSensor{behavior: behavior}
}

func (m *MockColorSensor) Red(ctx context.Context) (int, error) {
	_, r, _, _, err := m.read(ctx)
	return r, err
}

func (m *MockColorSensor) Green(ctx context.Context) (int, error) {
	_, _, g, _, err := m.read(ctx)
	return g, err
}

func (m *MockColorSensor) Blue(ctx context.Context) (int, error) {
	_, _, _, b, err := m.read(ctx)
	return b, err
}

func (m *MockColorSensor) Alpha(ctx context.Context) (int, error) {
	a, _, _, _, err := m.read(ctx)
	return a, err
}

func (m *MockColorSensor) ARGB(ctx context.Context) (uint32, error) {
	a, r, g, b, err := m.read(ctx)
	if err != nil {
		return 0, err
	}
	return uint32(a&0xFF)<<24 | uint32(r&0xFF)<<16 | uint32(g&0xFF)<<8 | uint32(b&0xFF), nil
}

// GetState reports a powered-on, converting device.
func (m *MockColorSensor) GetState(_ context.Context) (byte, error) {
	if m.closed {
		return 0x00, ErrClosed
	}
	return EnablePON | EnableAEN, nil
}

// GetDeviceID reports the expected part number.
func (m *MockColorSensor) GetDeviceID(_ context.Context) (byte, error) {
	if m.closed {
		return 0x00, ErrClosed
	}
	return PartID, nil
}

func (m *MockColorSensor) EnableLed(_ bool) error {
	return fmt.Errorf("%w: the LED is not controllable over the bus", ErrUnsupportedOperation)
}

func (m *MockColorSensor) Close(_ context.Context) error {
	m.closed = true
	return nil
}

func (m *MockColorSensor) read(ctx context.Context) (int, int, int, int, error) {
	if m.closed {
		return 0, 0, 0, 0, ErrClosed
	}
	return m.behavior(ctx)
}
