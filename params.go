package tcs34725

import (
	"fmt"
	"time"
)

// Gain is the analog gain setting written to the CONTROL register.
type Gain byte

const (
	Gain1x  Gain = 0x00
	Gain4x  Gain = 0x01
	Gain16x Gain = 0x02
	Gain60x Gain = 0x03
)

func (g Gain) String() string {
	switch g {
	case Gain1x:
		return "1x"
	case Gain4x:
		return "4x"
	case Gain16x:
		return "16x"
	case Gain60x:
		return "60x"
	}
	return fmt.Sprintf("0x%02X", byte(g))
}

// ParseGain maps a human-readable gain ("1x", "4x", "16x", "60x") to its
// register value.
func ParseGain(s string) (Gain, error) {
	switch s {
	case "1", "1x":
		return Gain1x, nil
	case "4", "4x":
		return Gain4x, nil
	case "16", "16x":
		return Gain16x, nil
	case "60", "60x":
		return Gain60x, nil
	}
	return 0, fmt.Errorf("unknown gain %q", s)
}

// IntegrationTime is the RGBC integration time written to the ATIME register.
// The register encodes the number of 2.4 ms cycles as its two's complement.
type IntegrationTime byte

const (
	IntegrationTime2_4ms IntegrationTime = 0xFF
	IntegrationTime24ms  IntegrationTime = 0xF6
	IntegrationTime50ms  IntegrationTime = 0xEB
	IntegrationTime101ms IntegrationTime = 0xD5
	IntegrationTime154ms IntegrationTime = 0xC0
	IntegrationTime700ms IntegrationTime = 0x00
)

func (t IntegrationTime) String() string {
	switch t {
	case IntegrationTime2_4ms:
		return "2.4ms"
	case IntegrationTime24ms:
		return "24ms"
	case IntegrationTime50ms:
		return "50ms"
	case IntegrationTime101ms:
		return "101ms"
	case IntegrationTime154ms:
		return "154ms"
	case IntegrationTime700ms:
		return "700ms"
	}
	return fmt.Sprintf("0x%02X", byte(t))
}

// Duration returns the actual RGBC cycle duration the register value encodes.
func (t IntegrationTime) Duration() time.Duration {
	return time.Duration(256-int(t)) * 2400 * time.Microsecond
}

// ParseIntegrationTime maps a human-readable integration time to its register
// value.
func ParseIntegrationTime(s string) (IntegrationTime, error) {
	switch s {
	case "2.4ms", "2.4":
		return IntegrationTime2_4ms, nil
	case "24ms", "24":
		return IntegrationTime24ms, nil
	case "50ms", "50":
		return IntegrationTime50ms, nil
	case "101ms", "101":
		return IntegrationTime101ms, nil
	case "154ms", "154":
		return IntegrationTime154ms, nil
	case "700ms", "700":
		return IntegrationTime700ms, nil
	}
	return 0, fmt.Errorf("unknown integration time %q", s)
}

// Params configures a Driver at creation and at explicit reinitialization.
type Params struct {
	// Address is the device's 7-bit bus address.
	Address byte
	// Gain selects the analog gain applied to the RGBC converters.
	Gain Gain
	// IntegrationTime selects the RGBC accumulation window.
	IntegrationTime IntegrationTime
	// LoggingEnabled turns on per-transaction transport logging.
	LoggingEnabled bool
	// LoggingTag labels transport log entries for this device.
	LoggingTag string
}

// DefaultParams returns the configuration matching the sensor's power-on
// characteristics: factory address, lowest gain, shortest integration time.
func DefaultParams() Params {
	return Params{
		Address:         DefaultAddress,
		Gain:            Gain1x,
		IntegrationTime: IntegrationTime2_4ms,
		LoggingTag:      "tcs34725",
	}
}
