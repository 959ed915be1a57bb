//go:build !tinygo

package spihost

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/e07rf/e07x/hal"
)

// Adapter implements hal.Hardware for a Linux host: pins resolve
// through gpioreg by BCM number, interrupts run as edge-wait
// goroutines, and the timebase is the process monotonic clock.
type Adapter struct {
	*Engine
	epoch time.Time

	mu      sync.Mutex
	pins    map[hal.Pin]gpio.PinIO
	watches map[hal.Pin]chan struct{}
}

// NewAdapter wraps an engine with the host's GPIO and timebase. The
// zero time of Millis and Micros is the moment of the call.
func NewAdapter(e *Engine) *Adapter {
	return &Adapter{
		Engine:  e,
		epoch:   time.Now(),
		pins:    make(map[hal.Pin]gpio.PinIO),
		watches: make(map[hal.Pin]chan struct{}),
	}
}

var _ hal.Hardware = (*Adapter)(nil)

// pin resolves and caches p. Unknown pins map to gpio.INVALID so every
// later operation on them degrades to a no-op instead of a crash.
func (a *Adapter) pin(p hal.Pin) gpio.PinIO {
	if p == hal.NoPin {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if io, ok := a.pins[p]; ok {
		return io
	}
	initHost() // gpioreg is empty until the host drivers load
	io := gpioreg.ByName(fmt.Sprintf("GPIO%d", p))
	if io == nil {
		io = gpio.INVALID
	}
	a.pins[p] = io
	return io
}

func (a *Adapter) PinMode(p hal.Pin, mode hal.PinMode) {
	io := a.pin(p)
	if io == nil {
		return
	}
	switch mode {
	case hal.PinOutput:
		io.Out(gpio.Low)
	case hal.PinInputPullup:
		io.In(gpio.PullUp, gpio.NoEdge)
	default:
		io.In(gpio.PullNoChange, gpio.NoEdge)
	}
}

func (a *Adapter) DigitalWrite(p hal.Pin, level bool) {
	if io := a.pin(p); io != nil {
		io.Out(gpio.Level(level))
	}
}

func (a *Adapter) DigitalRead(p hal.Pin) bool {
	io := a.pin(p)
	return io != nil && io.Read() == gpio.High
}

// AttachInterrupt arms edge detection on p and runs fn from a
// dedicated goroutine on every edge. Re-attaching replaces the previous
// callback.
func (a *Adapter) AttachInterrupt(p hal.Pin, edge hal.Edge, fn func()) error {
	io := a.pin(p)
	if io == nil {
		return nil
	}
	pEdge := gpio.RisingEdge
	if edge == hal.EdgeFalling {
		pEdge = gpio.FallingEdge
	}
	if err := io.In(gpio.PullNoChange, pEdge); err != nil {
		return err
	}

	stop := make(chan struct{})
	a.mu.Lock()
	if old, ok := a.watches[p]; ok {
		close(old)
	}
	a.watches[p] = stop
	a.mu.Unlock()

	go func() {
		for {
			// Short timeout so a Detach is noticed promptly.
			fired := io.WaitForEdge(100 * time.Millisecond)
			select {
			case <-stop:
				return
			default:
			}
			if fired {
				fn()
			}
		}
	}()
	return nil
}

func (a *Adapter) DetachInterrupt(p hal.Pin) error {
	io := a.pin(p)
	if io == nil {
		return nil
	}
	a.mu.Lock()
	if stop, ok := a.watches[p]; ok {
		close(stop)
		delete(a.watches, p)
	}
	a.mu.Unlock()
	return io.In(gpio.PullNoChange, gpio.NoEdge)
}

func (a *Adapter) Delay(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (a *Adapter) DelayMicros(us uint32) {
	hal.SpinMicros(a.Micros, us)
}

func (a *Adapter) Millis() uint32 {
	return uint32(time.Since(a.epoch) / time.Millisecond)
}

func (a *Adapter) Micros() uint32 {
	return uint32(time.Since(a.epoch) / time.Microsecond)
}

// PulseIn waits for p to reach level, then times how long it stays
// there. Returns 0 if either wait exceeds timeout.
func (a *Adapter) PulseIn(p hal.Pin, level bool, timeout time.Duration) time.Duration {
	io := a.pin(p)
	if io == nil {
		return 0
	}
	want := gpio.Level(level)
	deadline := time.Now().Add(timeout)
	for io.Read() != want {
		if time.Now().After(deadline) {
			return 0
		}
	}
	start := time.Now()
	for io.Read() == want {
		if time.Now().After(deadline) {
			return 0
		}
	}
	return time.Since(start)
}
