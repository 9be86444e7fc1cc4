package tcs34725

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// TransportOp records one bus operation observed by MockTransport.
type TransportOp struct {
	Addr byte
	Data []byte
	At   time.Time
}

// MockTransport is an in-memory Transport for tests and for running against
// no hardware. Reads are served from the Registers map, keyed by wire
// address (command bit included); unset registers read 0x00. Writes are
// applied to the map and recorded, timestamped, in issue order.
//
// Example usage:
//
//	tr := NewMockTransport()
//	tr.SetRegisters(RegDeviceID, PartID)
//	dev, err := New(ctx, tr, DefaultParams())
type MockTransport struct {
	mx sync.Mutex

	Registers map[byte]byte

	addr    byte
	engaged bool
	closed  bool

	// Coalescing mirrors the last EnableWriteCoalescing call.
	Coalescing bool
	// Logging and LoggingTag mirror the last SetLogging/SetLoggingTag calls.
	Logging    bool
	LoggingTag string

	// Writes holds every write in issue order. Reads holds every read.
	Writes []TransportOp
	Reads  []TransportOp
	// WaitCalls counts WaitForWriteCompletions invocations.
	WaitCalls int

	EngageCalls    int
	DisengageCalls int
	CloseCalls     int

	// ReadErr, WriteErr and WaitErr, when set, fail the corresponding
	// operations.
	ReadErr  error
	WriteErr error
	WaitErr  error

	concurrentOps int64
	maxConcurrent int64
}

var _ Transport = &MockTransport{}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		Registers: make(map[byte]byte),
		addr:      DefaultAddress,
	}
}

// SetRegisters lays out consecutive register values starting at reg, the way
// the device would present them on the wire.
func (m *MockTransport) SetRegisters(reg Register, data ...byte) {
	m.mx.Lock()
	defer m.mx.Unlock()
	for i, b := range data {
		m.Registers[reg.Command()+byte(i)] = b
	}
}

// Reset clears the recorded operations and counters, keeping the register
// contents and the lifecycle state.
func (m *MockTransport) Reset() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.Writes = nil
	m.Reads = nil
	m.WaitCalls = 0
	m.EngageCalls = 0
	m.DisengageCalls = 0
	m.CloseCalls = 0
	atomic.StoreInt64(&m.concurrentOps, 0)
	atomic.StoreInt64(&m.maxConcurrent, 0)
}

// IOCount reports the total number of bus operations observed, completion
// waits included.
func (m *MockTransport) IOCount() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return len(m.Writes) + len(m.Reads) + m.WaitCalls
}

// MaxConcurrent reports the highest number of overlapping operations
// observed, for serialization assertions.
func (m *MockTransport) MaxConcurrent() int64 {
	return atomic.LoadInt64(&m.maxConcurrent)
}

func (m *MockTransport) Engage(_ context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.engaged = true
	m.EngageCalls++
	return nil
}

func (m *MockTransport) Disengage(_ context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.engaged = false
	m.DisengageCalls++
	return nil
}

func (m *MockTransport) Close(_ context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.engaged = false
	m.CloseCalls++
	return nil
}

func (m *MockTransport) Read8(ctx context.Context, addr byte) (byte, error) {
	buf, err := m.ReadBlock(ctx, addr, 1)
	if err != nil {
		return 0x00, err
	}
	return buf[0], nil
}

func (m *MockTransport) ReadBlock(_ context.Context, addr byte, count int) ([]byte, error) {
	m.enter()
	defer m.exit()
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.usable(); err != nil {
		return nil, err
	}
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = m.Registers[addr+byte(i)]
	}
	m.Reads = append(m.Reads, TransportOp{Addr: addr, Data: buf, At: time.Now()})
	return buf, nil
}

func (m *MockTransport) Write8(ctx context.Context, addr byte, value byte) error {
	return m.WriteBlock(ctx, addr, []byte{value})
}

func (m *MockTransport) WriteBlock(_ context.Context, addr byte, data []byte) error {
	m.enter()
	defer m.exit()
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.usable(); err != nil {
		return err
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}
	recorded := make([]byte, len(data))
	copy(recorded, data)
	for i, b := range data {
		m.Registers[addr+byte(i)] = b
	}
	m.Writes = append(m.Writes, TransportOp{Addr: addr, Data: recorded, At: time.Now()})
	return nil
}

func (m *MockTransport) WaitForWriteCompletions(_ context.Context) error {
	m.enter()
	defer m.exit()
	m.mx.Lock()
	defer m.mx.Unlock()
	if err := m.usable(); err != nil {
		return err
	}
	m.WaitCalls++
	return m.WaitErr
}

func (m *MockTransport) SetAddress(addr byte) error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.addr = addr
	return nil
}

func (m *MockTransport) Address() byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.addr
}

func (m *MockTransport) EnableWriteCoalescing(on bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.Coalescing = on
}

func (m *MockTransport) SetLogging(on bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.Logging = on
}

func (m *MockTransport) SetLoggingTag(tag string) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.LoggingTag = tag
}

func (m *MockTransport) usable() error {
	if m.closed {
		return ErrClosed
	}
	if !m.engaged {
		return ErrNotEngaged
	}
	return nil
}

func (m *MockTransport) enter() {
	concurrent := atomic.AddInt64(&m.concurrentOps, 1)
	for {
		observed := atomic.LoadInt64(&m.maxConcurrent)
		if concurrent <= observed || atomic.CompareAndSwapInt64(&m.maxConcurrent, observed, concurrent) {
			return
		}
	}
}

func (m *MockTransport) exit() {
	atomic.AddInt64(&m.concurrentOps, -1)
}
