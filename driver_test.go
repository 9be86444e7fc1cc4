package tcs34725

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestTransport() *MockTransport {
	tr := NewMockTransport()
	tr.SetRegisters(RegDeviceID, PartID)
	return tr
}

func newTestDriver(t *testing.T) (*Driver, *MockTransport) {
	t.Helper()
	tr := newTestTransport()
	d, err := New(context.Background(), tr, DefaultParams())
	if err != nil {
		t.Fatalf("could not create driver: %v", err)
	}
	tr.Reset()
	return d, tr
}

func TestNewConfiguresTransportAndInitializes(t *testing.T) {
	tr := newTestTransport()
	params := DefaultParams()
	params.LoggingEnabled = true
	params.LoggingTag = "front-left"

	d, err := New(context.Background(), tr, params)

	assert.NoError(t, err)
	assert.NotNil(t, d)
	assert.Equal(t, 1, tr.EngageCalls)
	assert.False(t, tr.Coalescing)
	assert.True(t, tr.Logging)
	assert.Equal(t, "front-left", tr.LoggingTag)

	// integration time, gain, then the two-step enable
	if assert.Len(t, tr.Writes, 4) {
		assert.Equal(t, RegATime.Command(), tr.Writes[0].Addr)
		assert.Equal(t, []byte{byte(IntegrationTime2_4ms)}, tr.Writes[0].Data)
		assert.Equal(t, RegControl.Command(), tr.Writes[1].Addr)
		assert.Equal(t, []byte{byte(Gain1x)}, tr.Writes[1].Data)
		assert.Equal(t, RegEnable.Command(), tr.Writes[2].Addr)
		assert.Equal(t, []byte{EnablePON}, tr.Writes[2].Data)
		assert.Equal(t, RegEnable.Command(), tr.Writes[3].Addr)
		assert.Equal(t, []byte{EnablePON | EnableAEN}, tr.Writes[3].Data)
	}
}

func TestNewRejectsUnexpectedDevice(t *testing.T) {
	tests := []struct {
		name string
		id   byte
	}{
		{name: "all zeros", id: 0x00},
		{name: "all ones", id: 0xFF},
		{name: "off by one", id: 0x43},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewMockTransport()
			tr.SetRegisters(RegDeviceID, tt.id)

			d, err := New(context.Background(), tr, DefaultParams())

			assert.Nil(t, d)
			var unexpected *UnexpectedDeviceError
			if assert.ErrorAs(t, err, &unexpected) {
				assert.Equal(t, tt.id, unexpected.ID)
			}
			assert.Empty(t, tr.Writes, "no configuration should reach a wrong device")
			assert.Equal(t, 1, tr.DisengageCalls)
		})
	}
}

func TestNewPropagatesEngageFailure(t *testing.T) {
	tr := newTestTransport()
	_ = tr.Close(context.Background())

	d, err := New(context.Background(), tr, DefaultParams())

	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewPropagatesProbeFailure(t *testing.T) {
	tr := newTestTransport()
	tr.ReadErr = errors.New("nack")

	d, err := New(context.Background(), tr, DefaultParams())

	assert.Nil(t, d)
	assert.Contains(t, err.Error(), "could not read device id")
	assert.Equal(t, 1, tr.DisengageCalls)
}

func TestSetGainWritesDocumentedByte(t *testing.T) {
	tests := []struct {
		gain Gain
		want byte
	}{
		{gain: Gain1x, want: 0x00},
		{gain: Gain4x, want: 0x01},
		{gain: Gain16x, want: 0x02},
		{gain: Gain60x, want: 0x03},
	}

	for _, tt := range tests {
		t.Run(tt.gain.String(), func(t *testing.T) {
			d, tr := newTestDriver(t)

			err := d.SetGain(context.Background(), tt.gain)

			assert.NoError(t, err)
			if assert.Len(t, tr.Writes, 1) {
				assert.Equal(t, RegControl.Command(), tr.Writes[0].Addr)
				assert.Equal(t, []byte{tt.want}, tr.Writes[0].Data)
			}
		})
	}
}

func TestSetIntegrationTimeWritesDocumentedByte(t *testing.T) {
	tests := []struct {
		time IntegrationTime
		want byte
	}{
		{time: IntegrationTime2_4ms, want: 0xFF},
		{time: IntegrationTime24ms, want: 0xF6},
		{time: IntegrationTime50ms, want: 0xEB},
		{time: IntegrationTime101ms, want: 0xD5},
		{time: IntegrationTime154ms, want: 0xC0},
		{time: IntegrationTime700ms, want: 0x00},
	}

	for _, tt := range tests {
		t.Run(tt.time.String(), func(t *testing.T) {
			d, tr := newTestDriver(t)

			err := d.SetIntegrationTime(context.Background(), tt.time)

			assert.NoError(t, err)
			if assert.Len(t, tr.Writes, 1) {
				assert.Equal(t, RegATime.Command(), tr.Writes[0].Addr)
				assert.Equal(t, []byte{tt.want}, tr.Writes[0].Data)
			}
		})
	}
}

func TestEnableSequenceAndSettleDelay(t *testing.T) {
	d, tr := newTestDriver(t)

	err := d.Enable(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, tr.Writes, 2) {
		assert.Equal(t, []byte{EnablePON}, tr.Writes[0].Data, "power-on must be written alone first")
		assert.Equal(t, []byte{EnablePON | EnableAEN}, tr.Writes[1].Data)
		gap := tr.Writes[1].At.Sub(tr.Writes[0].At)
		assert.GreaterOrEqual(t, gap, 6*time.Millisecond, "settle delay between the enable writes")
	}
}

func TestEnableInterruptedDuringSettle(t *testing.T) {
	d, tr := newTestDriver(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
	defer cancel()

	err := d.Enable(ctx)

	assert.ErrorIs(t, err, ErrDelayInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	if assert.Len(t, tr.Writes, 1) {
		assert.Equal(t, []byte{EnablePON}, tr.Writes[0].Data, "the second enable write must not happen")
	}
}

func TestDisablePreservesUnrelatedBits(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegEnable, EnablePON|EnableAEN|EnableAIEN)

	err := d.Disable(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, tr.Writes, 1) {
		assert.Equal(t, RegEnable.Command(), tr.Writes[0].Addr)
		assert.Equal(t, []byte{EnableAIEN}, tr.Writes[0].Data, "PON and AEN cleared, other bits preserved")
	}
}

func TestColorReadsDecodeLittleEndian(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegRed, 0x34, 0x12)

	red, err := d.Red(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0x1234, red)
}

func TestColorReadsAreUnsigned(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegClear, 0xFF, 0xFF)

	alpha, err := d.Alpha(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0xFFFF, alpha)
	assert.GreaterOrEqual(t, alpha, 0)
}

func TestColorReadsTargetDocumentedRegisters(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegClear, 0x01, 0x00)
	tr.SetRegisters(RegRed, 0x02, 0x00)
	tr.SetRegisters(RegGreen, 0x03, 0x00)
	tr.SetRegisters(RegBlue, 0x04, 0x00)
	ctx := context.Background()

	alpha, _ := d.Alpha(ctx)
	red, _ := d.Red(ctx)
	green, _ := d.Green(ctx)
	blue, _ := d.Blue(ctx)

	assert.Equal(t, []int{1, 2, 3, 4}, []int{alpha, red, green, blue})
}

func TestARGBPacksChannels(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegClear, 0x10, 0x00)
	tr.SetRegisters(RegRed, 0x20, 0x00)
	tr.SetRegisters(RegGreen, 0x30, 0x00)
	tr.SetRegisters(RegBlue, 0x40, 0x00)

	argb, err := d.ARGB(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, uint32(0x10203040), argb)
}

func TestARGBTruncatesToEightBits(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegClear, 0xFF, 0xFF)
	tr.SetRegisters(RegRed, 0x34, 0x12)

	argb, err := d.ARGB(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, uint32(0xFF340000), argb)
}

func TestWriteWordEmitsMostSignificantByteFirst(t *testing.T) {
	d, tr := newTestDriver(t)

	err := d.WriteWord(context.Background(), RegAILT, 0x1234)

	assert.NoError(t, err)
	if assert.Len(t, tr.Writes, 1) {
		assert.Equal(t, RegAILT.Command(), tr.Writes[0].Addr)
		assert.Equal(t, []byte{0x12, 0x34}, tr.Writes[0].Data)
	}
}

func TestReadSignedWordDecodesMostSignificantFirst(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegAIHT, 0x80, 0x00)

	value, err := d.ReadSignedWord(context.Background(), RegAIHT)

	assert.NoError(t, err)
	assert.Equal(t, int16(-32768), value)
}

func TestSetInterruptLimits(t *testing.T) {
	d, tr := newTestDriver(t)

	err := d.SetInterruptLimits(context.Background(), 0x0102, 0x0304)

	assert.NoError(t, err)
	if assert.Len(t, tr.Writes, 2) {
		assert.Equal(t, RegAILT.Command(), tr.Writes[0].Addr)
		assert.Equal(t, []byte{0x01, 0x02}, tr.Writes[0].Data)
		assert.Equal(t, RegAIHT.Command(), tr.Writes[1].Addr)
		assert.Equal(t, []byte{0x03, 0x04}, tr.Writes[1].Data)
	}
}

func TestGetStateAndDeviceID(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegEnable, EnablePON|EnableAEN)

	state, err := d.GetState(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, EnablePON|EnableAEN, state)

	id, err := d.GetDeviceID(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, PartID, id)
}

func TestAddressPassThrough(t *testing.T) {
	d, tr := newTestDriver(t)

	addr, err := d.GetAddress()
	assert.NoError(t, err)
	assert.Equal(t, DefaultAddress, addr)

	assert.NoError(t, d.SetAddress(0x39))
	assert.Equal(t, byte(0x39), tr.Address())

	addr, err = d.GetAddress()
	assert.NoError(t, err)
	assert.Equal(t, byte(0x39), addr)
}

func TestClosedDriverFailsEveryOperation(t *testing.T) {
	d, tr := newTestDriver(t)
	ctx := context.Background()

	assert.NoError(t, d.Close(ctx))
	assert.NoError(t, d.Close(ctx), "closing twice must not raise")
	assert.Equal(t, 1, tr.CloseCalls)

	tests := []struct {
		name string
		op   func() error
	}{
		{name: "red", op: func() error { _, err := d.Red(ctx); return err }},
		{name: "argb", op: func() error { _, err := d.ARGB(ctx); return err }},
		{name: "get state", op: func() error { _, err := d.GetState(ctx); return err }},
		{name: "get device id", op: func() error { _, err := d.GetDeviceID(ctx); return err }},
		{name: "enable", op: func() error { return d.Enable(ctx) }},
		{name: "disable", op: func() error { return d.Disable(ctx) }},
		{name: "initialize", op: func() error { return d.Initialize(ctx, DefaultParams()) }},
		{name: "set gain", op: func() error { return d.SetGain(ctx, Gain4x) }},
		{name: "read byte", op: func() error { _, err := d.ReadByte(ctx, RegStatus); return err }},
		{name: "write byte", op: func() error { return d.WriteByte(ctx, RegConfig, 0x00) }},
		{name: "write word", op: func() error { return d.WriteWord(ctx, RegAILT, 1) }},
		{name: "set address", op: func() error { return d.SetAddress(0x39) }},
		{name: "get address", op: func() error { _, err := d.GetAddress(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.op(), ErrClosed)
		})
	}
}

func TestEnableLedAlwaysFailsWithoutIO(t *testing.T) {
	d, tr := newTestDriver(t)
	before := tr.IOCount()

	assert.ErrorIs(t, d.EnableLed(true), ErrUnsupportedOperation)
	assert.ErrorIs(t, d.EnableLed(false), ErrUnsupportedOperation)
	assert.Equal(t, before, tr.IOCount(), "no transport traffic on an unsupported operation")
}

func TestEveryWriteAwaitsCompletion(t *testing.T) {
	tr := newTestTransport()
	ctx := context.Background()

	d, err := New(ctx, tr, DefaultParams())
	assert.NoError(t, err)
	assert.NoError(t, d.SetGain(ctx, Gain16x))
	assert.NoError(t, d.WriteWord(ctx, RegAILT, 0x0100))
	assert.NoError(t, d.Disable(ctx))

	assert.Equal(t, len(tr.Writes), tr.WaitCalls, "each register write must be followed by a completion wait")
}

func TestDriverSerializesConcurrentCallers(t *testing.T) {
	d, tr := newTestDriver(t)
	tr.SetRegisters(RegRed, 0x01, 0x00)
	ctx := context.Background()

	const numOps = 8
	var wg sync.WaitGroup
	wg.Add(numOps)
	for i := 0; i < numOps; i++ {
		go func() {
			defer wg.Done()
			_, err := d.Red(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, tr.MaxConcurrent(), int64(1), "mutex should serialize operations")
}

type muxableTransport struct {
	*MockTransport
	mux Multiplexer
	ch  Channel
}

func (m *muxableTransport) AttachToMultiplexer(mux Multiplexer, ch Channel) error {
	m.mux = mux
	m.ch = ch
	return nil
}

type fakeMux struct {
	selected []Channel
	err      error
}

func (f *fakeMux) Select(_ context.Context, ch Channel) error {
	if f.err != nil {
		return f.err
	}
	f.selected = append(f.selected, ch)
	return nil
}

func TestAttachToMultiplexerDelegatesToTransport(t *testing.T) {
	tr := &muxableTransport{MockTransport: newTestTransport()}
	d, err := New(context.Background(), tr, DefaultParams())
	assert.NoError(t, err)

	target := &fakeMux{}
	assert.NoError(t, d.AttachToMultiplexer(target, 5))
	assert.Equal(t, target, tr.mux)
	assert.Equal(t, Channel(5), tr.ch)
}

func TestAttachToMultiplexerUnsupportedTransport(t *testing.T) {
	d, _ := newTestDriver(t)

	err := d.AttachToMultiplexer(&fakeMux{}, 2)

	assert.ErrorIs(t, err, ErrUnsupportedOperation)
}

func TestReinitializeAppliesNewParameters(t *testing.T) {
	d, tr := newTestDriver(t)
	params := DefaultParams()
	params.Gain = Gain60x
	params.IntegrationTime = IntegrationTime700ms

	err := d.Initialize(context.Background(), params)

	assert.NoError(t, err)
	if assert.Len(t, tr.Writes, 4) {
		assert.Equal(t, []byte{byte(IntegrationTime700ms)}, tr.Writes[0].Data)
		assert.Equal(t, []byte{byte(Gain60x)}, tr.Writes[1].Data)
	}
}

func TestDescription(t *testing.T) {
	d, _ := newTestDriver(t)

	assert.Contains(t, d.Name(), "TCS34725")
	assert.Contains(t, d.GetConnectionInfo(), "0x29")
}
