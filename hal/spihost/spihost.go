//go:build !tinygo

// Package spihost implements the hal contract on Linux hosts through
// periph.io. The kernel's spidev transaction queue does the byte
// clocking; the engine adds the bookkeeping the driver expects of a
// shared bus: one port handle per device path, a transaction lease so
// multi-device buses never interleave accesses, and teardown that only
// releases what this engine opened.
package spihost

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/e07rf/e07x/hal"
)

// ErrTransfer is returned when the kernel rejects a bus transaction.
// Reads that fail this way yield 0xFF, the idle level of the MISO line.
var ErrTransfer = errors.New("spihost: transfer failed")

var (
	errTxSliceMismatch = errors.New("spihost: tx slice length mismatch")
	errNotOpen         = errors.New("spihost: engine not open")
)

// test seams
var (
	openPort = spireg.Open
	initHost = func() error {
		_, err := host.Init()
		return err
	}
)

// busEntry is the shared state of one spidev path. Engines on the same
// path serialize their transactions through mu and refcount the port so
// the last one out closes it.
type busEntry struct {
	mu   sync.Mutex
	port spi.PortCloser
	refs int
}

var (
	registryMu sync.Mutex
	registry   = map[string]*busEntry{}
)

// Engine is the transaction-queue SPI implementation. Transfers go
// through one kernel transaction each; chip select is the port's own
// unless the device sits behind a demux, in which case the driver
// toggles a plain GPIO and the port's CS stays unwired.
type Engine struct {
	port string
	hz   uint32
	ent  *busEntry
	conn spi.Conn
}

// NewEngine returns an engine for the spireg port name (for example
// "SPI0.0" or "/dev/spidev0.0") clocked at hz. Open must be called
// before any transfer.
func NewEngine(port string, hz uint32) *Engine {
	return &Engine{port: port, hz: hz}
}

var _ hal.SPI = (*Engine)(nil)

// Open connects to the port at mode 0, 8 bits. Opening a path that
// another engine already holds joins its bus instead of reopening it;
// calling Open on an open engine is a no-op.
func (e *Engine) Open() error {
	if e.conn != nil {
		return nil
	}
	if err := initHost(); err != nil {
		return fmt.Errorf("spihost: host init: %w", err)
	}

	registryMu.Lock()
	ent, ok := registry[e.port]
	if !ok {
		p, err := openPort(e.port)
		if err != nil {
			registryMu.Unlock()
			return fmt.Errorf("spihost: open %s: %w", e.port, err)
		}
		ent = &busEntry{port: p}
		registry[e.port] = ent
	}
	ent.refs++
	registryMu.Unlock()

	conn, err := ent.port.Connect(physic.Frequency(e.hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		e.release(ent)
		return fmt.Errorf("spihost: connect %s: %w", e.port, err)
	}
	e.ent, e.conn = ent, conn
	return nil
}

// BeginTransaction leases the bus. The lease has no timeout: a device
// that hangs holding it is a driver bug, not a condition to paper over.
// Before Open there is no bus to lease; the pair degrades to a no-op so
// pre-open misuse surfaces through Transfer's error, not a crash here.
func (e *Engine) BeginTransaction() {
	if e.ent == nil {
		return
	}
	e.ent.mu.Lock()
}

func (e *Engine) EndTransaction() {
	if e.ent == nil {
		return
	}
	e.ent.mu.Unlock()
}

func (e *Engine) Transfer(b byte) (byte, error) {
	if e.conn == nil {
		return 0xFF, errNotOpen
	}
	var r [1]byte
	if err := e.conn.Tx([]byte{b}, r[:]); err != nil {
		return 0xFF, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return r[0], nil
}

func (e *Engine) Tx(w, r []byte) error {
	if e.conn == nil {
		return errNotOpen
	}
	if r != nil && len(w) != len(r) {
		return errTxSliceMismatch
	}
	if err := e.conn.Tx(w, r); err != nil {
		for i := range r {
			r[i] = 0xFF
		}
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	return nil
}

// Close detaches from the bus. The underlying port is closed only when
// no other engine still holds it.
func (e *Engine) Close() error {
	if e.conn == nil {
		return nil
	}
	ent := e.ent
	e.conn, e.ent = nil, nil
	return e.release(ent)
}

func (e *Engine) release(ent *busEntry) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	ent.refs--
	if ent.refs > 0 {
		return nil
	}
	delete(registry, e.port)
	return ent.port.Close()
}
