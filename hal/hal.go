// Package hal defines the hardware capability contract the e07x driver
// requires of a platform: GPIO, timing, interrupts and a full-duplex SPI
// engine. One implementation exists per deployment target; the driver
// itself never branches on the platform.
package hal

import "time"

// Pin identifies a GPIO pin in the platform's numbering.
type Pin uint8

// NoPin marks a signal as not connected. Every pin operation on NoPin is
// a guaranteed no-op and every read returns the inactive level.
const NoPin Pin = 0xFF

type PinMode uint8

const (
	PinInput PinMode = iota
	PinInputPullup
	PinOutput
)

// Edge selects the trigger of a pin interrupt.
type Edge uint8

const (
	EdgeRising Edge = iota
	EdgeFalling
)

// SPI is the byte-transfer engine contract shared by the bit-level and
// the transaction-queue implementations. Transfers are synchronous
// full-duplex: one byte is clocked in for every byte clocked out.
//
// BeginTransaction and EndTransaction bracket a sequence of transfers
// that must not interleave with another device on the same bus. Engines
// with exclusive pin ownership implement them as no-ops.
type SPI interface {
	// Open claims the bus hardware and programs clock, mode 0 and
	// MSB-first ordering. It must be called before any transfer.
	Open() error
	BeginTransaction()
	// Transfer clocks one byte out and returns the byte clocked in.
	Transfer(b byte) (byte, error)
	// Tx clocks len(w) bytes out while filling r, which must be nil or
	// of equal length.
	Tx(w, r []byte) error
	EndTransaction()
	// Close releases the bus hardware. A shared bus that was already
	// open before Open was called is left intact.
	Close() error
}

// Hardware is the full capability set the driver consumes. All methods
// are synchronous; none may be called concurrently for one device.
type Hardware interface {
	SPI

	PinMode(p Pin, mode PinMode)
	DigitalWrite(p Pin, level bool)
	DigitalRead(p Pin) bool
	// AttachInterrupt registers fn to run on the selected edge of p.
	// The callback runs with no arguments and must not block.
	AttachInterrupt(p Pin, edge Edge, fn func()) error
	DetachInterrupt(p Pin) error

	// Delay sleeps for at least ms milliseconds, yielding the thread.
	Delay(ms uint32)
	// DelayMicros busy-waits us microseconds on the monotonic clock.
	// Used where millisecond sleep granularity is too coarse, such as
	// analog settling waits.
	DelayMicros(us uint32)
	// Millis and Micros read a monotonic clock. Both wrap at the 32-bit
	// boundary; see SpinMicros for how waits handle the wrap.
	Millis() uint32
	Micros() uint32
	// PulseIn measures the duration of the next pulse at the given level
	// on p, giving up after timeout. Returns 0 on timeout.
	PulseIn(p Pin, level bool, timeout time.Duration) time.Duration
}
