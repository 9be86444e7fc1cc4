package tcs34725

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allRegisters = []Register{
	RegEnable, RegATime, RegWTime, RegAILT, RegAIHT, RegPers,
	RegConfig, RegControl, RegDeviceID, RegStatus,
	RegClear, RegRed, RegGreen, RegBlue,
}

func TestRegisterCommandSetsCommandBit(t *testing.T) {
	for _, reg := range allRegisters {
		assert.Equal(t, reg.Address()|CommandBit, reg.Command(), "register %s", reg)
		assert.NotZero(t, reg.Command()&0x80, "register %s", reg)
	}
}

func TestRegisterAddressesMatchDatasheet(t *testing.T) {
	assert.Equal(t, byte(0x00), RegEnable.Address())
	assert.Equal(t, byte(0x01), RegATime.Address())
	assert.Equal(t, byte(0x0F), RegControl.Address())
	assert.Equal(t, byte(0x12), RegDeviceID.Address())
	assert.Equal(t, byte(0x14), RegClear.Address())
	assert.Equal(t, byte(0x16), RegRed.Address())
	assert.Equal(t, byte(0x18), RegGreen.Address())
	assert.Equal(t, byte(0x1A), RegBlue.Address())
}

func TestRegisterNames(t *testing.T) {
	for _, reg := range allRegisters {
		assert.NotEqual(t, "UNKNOWN", reg.String())
	}
	assert.Equal(t, "UNKNOWN", Register(0x7E).String())
}

func TestDatasheetConstants(t *testing.T) {
	assert.Equal(t, byte(0x80), CommandBit)
	assert.Equal(t, byte(0x44), PartID)
	assert.Equal(t, byte(0x29), DefaultAddress)
}
