//go:build tinygo

package espspi

import (
	"machine"
	"time"

	"github.com/e07rf/e07x/hal"
)

// Adapter implements hal.Hardware on bare metal: GPIO and interrupts go
// through the machine package, the timebase through the runtime clock,
// and bus transfers through the embedded Engine.
type Adapter struct {
	*Engine
	epoch time.Time
}

// NewAdapter wraps an engine with the board's GPIO and timebase. The
// zero time of Millis and Micros is the moment of the call.
func NewAdapter(e *Engine) *Adapter {
	return &Adapter{Engine: e, epoch: time.Now()}
}

var _ hal.Hardware = (*Adapter)(nil)

func (a *Adapter) PinMode(p hal.Pin, mode hal.PinMode) {
	if p == hal.NoPin {
		return
	}
	cfg := machine.PinConfig{Mode: machine.PinOutput}
	switch mode {
	case hal.PinInput:
		cfg.Mode = machine.PinInput
	case hal.PinInputPullup:
		cfg.Mode = machine.PinInputPullup
	}
	machine.Pin(p).Configure(cfg)
}

func (a *Adapter) DigitalWrite(p hal.Pin, level bool) {
	if p == hal.NoPin {
		return
	}
	machine.Pin(p).Set(level)
}

func (a *Adapter) DigitalRead(p hal.Pin) bool {
	if p == hal.NoPin {
		return false
	}
	return machine.Pin(p).Get()
}

func (a *Adapter) AttachInterrupt(p hal.Pin, edge hal.Edge, fn func()) error {
	if p == hal.NoPin {
		return nil
	}
	change := machine.PinRising
	if edge == hal.EdgeFalling {
		change = machine.PinFalling
	}
	return machine.Pin(p).SetInterrupt(change, func(machine.Pin) { fn() })
}

func (a *Adapter) DetachInterrupt(p hal.Pin) error {
	if p == hal.NoPin {
		return nil
	}
	return machine.Pin(p).SetInterrupt(0, nil)
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
	if p == hal.NoPin {
		return 0
	}
	pin := machine.Pin(p)
	deadline := time.Now().Add(timeout)
	for pin.Get() != level {
		if time.Now().After(deadline) {
			return 0
		}
	}
	start := time.Now()
	for pin.Get() == level {
		if time.Now().After(deadline) {
			return 0
		}
	}
	return time.Since(start)
}
