package tcs34725

import (
	"context"
)

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// Bus is a raw I2C bus with 7-bit addressing. Adapters in adapter/ and i2c/
// implement it over real hardware; DeviceClient builds the register-level
// Transport on top of it.
type Bus interface {
	AddressableReader
	AddressableWriter
}

type BusDevice interface {
	BusReader
	BusWriter
}
