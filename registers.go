package tcs34725

// DefaultAddress is the factory-programmed 7-bit bus address of the TCS34725.
const DefaultAddress byte = 0x29

// CommandBit must be OR-ed into every register address before transmission;
// the device ignores transactions without it (datasheet, COMMAND register).
const CommandBit byte = 0x80

// PartID is the value the ID register reports for the TCS34725.
const PartID byte = 0x44

// Register identifies one of the device's internal registers by its
// datasheet address.
type Register byte

// Register map (TCS34725 datasheet, table 3).
const (
	RegEnable   Register = 0x00 // power and function enables
	RegATime    Register = 0x01 // RGBC integration time
	RegWTime    Register = 0x03 // wait time
	RegAILT     Register = 0x04 // clear channel interrupt low threshold, low byte
	RegAIHT     Register = 0x06 // clear channel interrupt high threshold, low byte
	RegPers     Register = 0x0C // interrupt persistence filter
	RegConfig   Register = 0x0D // wait long configuration
	RegControl  Register = 0x0F // analog gain control
	RegDeviceID Register = 0x12 // part number, reads PartID
	RegStatus   Register = 0x13 // device status
	RegClear    Register = 0x14 // clear channel data, low byte
	RegRed      Register = 0x16 // red channel data, low byte
	RegGreen    Register = 0x18 // green channel data, low byte
	RegBlue     Register = 0x1A // blue channel data, low byte
)

// ENABLE register bits.
const (
	EnablePON  byte = 0x01 // power on, activates internal oscillator
	EnableAEN  byte = 0x02 // RGBC enable, starts the ADC cycle
	EnableWEN  byte = 0x08 // wait enable
	EnableAIEN byte = 0x10 // clear channel interrupt enable
)

// STATUS register bits.
const (
	StatusAValid byte = 0x01 // an RGBC integration cycle completed since AEN
	StatusAInt   byte = 0x10 // clear channel interrupt asserted
)

// Address returns the raw register address.
func (r Register) Address() byte {
	return byte(r)
}

// Command returns the register address with the command bit set, which is the
// form every wire transaction must use.
func (r Register) Command() byte {
	return byte(r) | CommandBit
}

func (r Register) String() string {
	switch r {
	case RegEnable:
		return "ENABLE"
	case RegATime:
		return "ATIME"
	case RegWTime:
		return "WTIME"
	case RegAILT:
		return "AILT"
	case RegAIHT:
		return "AIHT"
	case RegPers:
		return "PERS"
	case RegConfig:
		return "CONFIG"
	case RegControl:
		return "CONTROL"
	case RegDeviceID:
		return "ID"
	case RegStatus:
		return "STATUS"
	case RegClear:
		return "CDATA"
	case RegRed:
		return "RDATA"
	case RegGreen:
		return "GDATA"
	case RegBlue:
		return "BDATA"
	}
	return "UNKNOWN"
}
