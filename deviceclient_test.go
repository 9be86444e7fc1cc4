package tcs34725

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBus is a mock implementation of Bus using testify/mock
type MockBus struct {
	mock.Mock
}

func (m *MockBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if args.Get(0) != nil {
		if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
			copy(buffer, data)
		}
	}
	return args.Error(1)
}

func (m *MockBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestDeviceClientReadWritesPointerFirst(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegDeviceID.Command()}).
		Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return([]byte{PartID}, nil).Once()

	value, err := c.Read8(ctx, RegDeviceID.Command())

	assert.NoError(t, err)
	assert.Equal(t, PartID, value)
	if assert.Len(t, bus.Calls, 2) {
		assert.Equal(t, "WriteToAddr", bus.Calls[0].Method)
		assert.Equal(t, "ReadFromAddr", bus.Calls[1].Method)
	}
	bus.AssertExpectations(t)
}

func TestDeviceClientCoalescingQueuesWrites(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))
	c.EnableWriteCoalescing(true)

	assert.NoError(t, c.Write8(ctx, RegEnable.Command(), EnablePON))
	assert.NoError(t, c.Write8(ctx, RegATime.Command(), 0xF6))
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegEnable.Command(), EnablePON}).
		Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegATime.Command(), 0xF6}).
		Return(nil).Once()

	assert.NoError(t, c.WaitForWriteCompletions(ctx))

	if assert.Len(t, bus.Calls, 2) {
		assert.Equal(t, []byte{RegEnable.Command(), EnablePON}, bus.Calls[0].Arguments.Get(2).([]byte))
		assert.Equal(t, []byte{RegATime.Command(), 0xF6}, bus.Calls[1].Arguments.Get(2).([]byte))
	}
	bus.AssertExpectations(t)

	// queue is drained, another wait stays off the bus
	assert.NoError(t, c.WaitForWriteCompletions(ctx))
	assert.Len(t, bus.Calls, 2)
}

func TestDeviceClientReadFlushesPendingWrites(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))
	c.EnableWriteCoalescing(true)

	assert.NoError(t, c.Write8(ctx, RegConfig.Command(), 0x00))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegConfig.Command(), 0x00}).
		Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegStatus.Command()}).
		Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return([]byte{0x11}, nil).Once()

	value, err := c.Read8(ctx, RegStatus.Command())

	assert.NoError(t, err)
	assert.Equal(t, byte(0x11), value)
	if assert.Len(t, bus.Calls, 3) {
		assert.Equal(t, []byte{RegConfig.Command(), 0x00}, bus.Calls[0].Arguments.Get(2).([]byte),
			"queued write must be committed before the dependent read")
	}
	bus.AssertExpectations(t)
}

func TestDeviceClientSelectsChannelBeforeTransactions(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	m := &fakeMux{}
	assert.NoError(t, c.AttachToMultiplexer(m, 3))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegEnable.Command(), EnablePON}).
		Run(func(mock.Arguments) { assert.Len(t, m.selected, 1, "channel select precedes the write") }).
		Return(nil).Once()

	assert.NoError(t, c.Write8(ctx, RegEnable.Command(), EnablePON))
	assert.Equal(t, []Channel{3}, m.selected)

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegStatus.Command()}).
		Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return([]byte{0x00}, nil).Once()

	_, err := c.Read8(ctx, RegStatus.Command())
	assert.NoError(t, err)
	assert.Equal(t, []Channel{3, 3}, m.selected, "reads select the channel too")
	bus.AssertExpectations(t)
}

func TestDeviceClientMuxFailureBlocksTransaction(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	m := &fakeMux{err: errors.New("switch unreachable")}
	assert.NoError(t, c.AttachToMultiplexer(m, 1))

	err := c.Write8(ctx, RegEnable.Command(), EnablePON)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not select multiplexer channel")
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeviceClientRejectsInvalidChannel(t *testing.T) {
	c := NewDeviceClient(new(MockBus), DefaultAddress)

	assert.Error(t, c.AttachToMultiplexer(&fakeMux{}, 8))
}

func TestDeviceClientRequiresEngagement(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()

	_, err := c.Read8(ctx, RegDeviceID.Command())
	assert.ErrorIs(t, err, ErrNotEngaged)
	assert.ErrorIs(t, c.Write8(ctx, RegEnable.Command(), EnablePON), ErrNotEngaged)
	assert.ErrorIs(t, c.WaitForWriteCompletions(ctx), ErrNotEngaged)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeviceClientCloseIsTerminalAndIdempotent(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))
	bus.On("Release", mock.Anything).Return(nil).Once()

	assert.NoError(t, c.Close(ctx))
	assert.NoError(t, c.Close(ctx))

	_, err := c.Read8(ctx, RegDeviceID.Command())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Engage(ctx), ErrClosed)
	assert.ErrorIs(t, c.Disengage(ctx), ErrClosed)
	assert.ErrorIs(t, c.SetAddress(0x39), ErrClosed)
	bus.AssertExpectations(t)
}

func TestDeviceClientDisengageFlushesAndReleases(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))
	c.EnableWriteCoalescing(true)

	assert.NoError(t, c.Write8(ctx, RegConfig.Command(), 0x00))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegConfig.Command(), 0x00}).
		Return(nil).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()

	assert.NoError(t, c.Disengage(ctx))
	assert.NoError(t, c.Disengage(ctx), "disengage is idempotent")
	bus.AssertExpectations(t)
}

func TestDeviceClientAddressHandling(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	assert.Error(t, c.SetAddress(0x80), "8-bit addresses are rejected")
	assert.Equal(t, DefaultAddress, c.Address())

	assert.NoError(t, c.SetAddress(0x39))
	assert.Equal(t, byte(0x39), c.Address())

	bus.On("WriteToAddr", mock.Anything, byte(0x39), []byte{RegEnable.Command(), EnablePON}).
		Return(nil).Once()
	assert.NoError(t, c.Write8(ctx, RegEnable.Command(), EnablePON))
	bus.AssertExpectations(t)
}

func TestDeviceClientBusyReleasesBus(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, []byte{RegEnable.Command(), EnablePON}).
		Return(ErrBusBusy)
	bus.On("Release", mock.Anything).Return(nil).Once()

	err := c.Write8(ctx, RegEnable.Command(), EnablePON)

	assert.ErrorIs(t, err, ErrBusBusy)
	assert.ErrorIs(t, err, ErrTransport)
	bus.AssertExpectations(t)
}

func TestDeviceClientWrapsTransportErrors(t *testing.T) {
	bus := new(MockBus)
	c := NewDeviceClient(bus, DefaultAddress)
	ctx := context.Background()
	assert.NoError(t, c.Engage(ctx))

	bus.On("WriteToAddr", mock.Anything, DefaultAddress, mock.Anything).
		Return(errors.New("nack")).Once()

	_, err := c.Read8(ctx, RegDeviceID.Command())

	assert.ErrorIs(t, err, ErrTransport)
	assert.Contains(t, err.Error(), "nack")
}
