// Package e07x drives the E07-400MM sub-GHz transceiver, a CC1101
// clone with a stricter bus protocol than the chip it copies: status
// registers and the FIFO return stale data unless the burst-access bit
// is set in the command byte, and the packet-control registers must be
// written in one SPI access each.
//
// The driver is platform-neutral. All hardware access goes through a
// hal.Hardware, with one implementation per deployment target (see
// hal/espspi and hal/spihost).
package e07x

import (
	"errors"
	"sync"

	"log/slog"

	"golang.org/x/exp/constraints"

	"github.com/e07rf/e07x/cc1101"
	"github.com/e07rf/e07x/hal"
)

var (
	ErrInvalidPayload = errors.New("e07x: invalid packet length")
	ErrCRCMismatch    = errors.New("e07x: crc mismatch")
	ErrDeviceNotReady = errors.New("e07x: device not initialized")
	ErrInvalidParams  = errors.New("e07x: invalid parameters")
	ErrBusInit        = errors.New("e07x: bus initialization failed")
)

var errTxTimeout = errors.New("e07x: transmit timeout")

// Device is a single transceiver on a SPI bus. All exported methods
// serialize on an internal mutex; the zero value is unusable until
// Init succeeds.
type Device struct {
	mu sync.Mutex
	hw hal.Hardware

	cs   hal.Pin
	gdo0 hal.Pin

	initialized bool
	crcOn       bool
	freqMHz     float64

	// packet-length cache, see PacketLength
	pktLen      uint8
	pktLenValid bool
	// trailing status bytes of the last delivered packet
	lastRSSIRaw uint8
	lastLQI     cc1101.LQI

	logger        *slog.Logger
	_traceenabled bool
}

type Config struct {
	// CS is driven low around every framed bus access. Pass NoPin when
	// the engine's own chip select is wired to the radio.
	CS hal.Pin
	// GDO0 is the radio's packet-event line. Optional; required only
	// for AttachPacketInterrupt.
	GDO0 hal.Pin
	// FrequencyMHz is the initial carrier. Defaults to 433.0.
	FrequencyMHz float64
	Logger       *slog.Logger
}

func DefaultConfig() Config {
	return Config{CS: hal.NoPin, GDO0: hal.NoPin, FrequencyMHz: 433.0}
}

// New returns an uninitialized device on hw. Call Init before use.
func New(hw hal.Hardware) *Device {
	return &Device{hw: hw, cs: hal.NoPin, gdo0: hal.NoPin}
}

// Init opens the bus, resets and identifies the chip, programs the
// base register set and the clone-safe packet mode, and leaves the
// radio listening.
func (d *Device) Init(cfg Config) (err error) {
	err = d.acquire(false)
	defer d.release()
	if err != nil {
		return err
	}
	d.logger = cfg.Logger
	d._traceenabled = d.logenabled(levelTrace)
	d.cs, d.gdo0 = cfg.CS, cfg.GDO0
	if cfg.FrequencyMHz == 0 {
		cfg.FrequencyMHz = 433.0
	}
	d.info("Init:start")

	if err = d.hw.Open(); err != nil {
		return errors.Join(ErrBusInit, err)
	}
	d.hw.PinMode(d.cs, hal.PinOutput)
	d.hw.DigitalWrite(d.cs, true)
	d.hw.PinMode(d.gdo0, hal.PinInput)

	if err = d.reset(); err != nil {
		return err
	}
	part, err := d.readStatus(cc1101.PARTNUM)
	if err != nil {
		return err
	}
	version, err := d.readStatus(cc1101.VERSION)
	if err != nil {
		return err
	}
	d.info("Init:chip",
		slog.Uint64("partnum", uint64(part)),
		slog.Uint64("version", uint64(version)),
	)

	// GDO0 asserts on sync word, deasserts at end of packet.
	if err = d.writeReg(cc1101.IOCFG0, 0x06); err != nil {
		return err
	}
	// ADC retention, RX attenuation off, FIFO threshold 32/33.
	if err = d.writeReg(cc1101.FIFOTHR, 0x47); err != nil {
		return err
	}
	// Calibrate when going idle -> RX/TX, PO_TIMEOUT ~150us.
	if err = d.writeReg(cc1101.MCSM0, 0x18); err != nil {
		return err
	}
	if err = d.restoreSyncMode(); err != nil {
		return err
	}
	if err = d.setFrequency(cfg.FrequencyMHz); err != nil {
		return err
	}
	if err = d.configurePacketMode(); err != nil {
		return err
	}

	d.initialized = true
	d.debug("Init:done", slog.Float64("mhz", d.freqMHz))
	return d.startReceive()
}

// Close idles the radio, detaches the packet interrupt and releases
// the bus. The device must be re-initialized to be used again.
func (d *Device) Close() error {
	err := d.acquire(false)
	defer d.release()
	if err != nil {
		return err
	}
	if !d.initialized {
		return nil
	}
	d.initialized = false
	d.strobe(cc1101.SIDLE)
	if d.gdo0 != hal.NoPin {
		d.hw.DetachInterrupt(d.gdo0)
	}
	return d.hw.Close()
}

// SetFrequency programs the carrier. The radio drops to idle while the
// synthesizer reloads; receive mode must be re-entered by the caller.
func (d *Device) SetFrequency(mhz float64) error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	return d.setFrequency(mhz)
}

// Frequency returns the currently programmed carrier in MHz.
func (d *Device) Frequency() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freqMHz
}

// Standby exits RX/TX and turns the frequency synthesizer off.
func (d *Device) Standby() error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	return d.strobe(cc1101.SIDLE)
}

// Reset performs the manual power-on-reset sequence and reboots the
// chip. All register configuration is lost.
func (d *Device) Reset() error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	d.initialized = false
	return d.reset()
}

// Transmit sends one variable-length packet and re-arms receive mode.
func (d *Device) Transmit(data []byte) error {
	if len(data) == 0 || len(data) > cc1101.MaxPacketLength {
		return ErrInvalidPayload
	}
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	if err := d.strobe(cc1101.SIDLE); err != nil {
		return err
	}
	if err := d.strobe(cc1101.SFTX); err != nil {
		return err
	}
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, byte(len(data)))
	frame = append(frame, data...)
	if err := d.writeBurst(cc1101.FIFO, frame); err != nil {
		return err
	}
	if err := d.strobe(cc1101.STX); err != nil {
		return err
	}
	if err := d.waitTxDone(); err != nil {
		return err
	}
	return d.startReceive()
}

// waitTxDone polls the radio state until the packet has left the FIFO
// and the chip is back in idle.
func (d *Device) waitTxDone() error {
	const timeoutMs = 100
	for i := 0; i < timeoutMs; i++ {
		st, err := d.readStatus(cc1101.MARCSTATE)
		if err != nil {
			return err
		}
		switch st & 0x1F {
		case cc1101.StateIdle:
			return nil
		case cc1101.StateTxFIFOUnderrun:
			d.strobe(cc1101.SFTX)
			return errTxTimeout
		}
		d.hw.Delay(1)
	}
	return errTxTimeout
}

func (d *Device) setFrequency(mhz float64) error {
	word, err := cc1101.FrequencyWord(mhz)
	if err != nil {
		return err
	}
	// The synthesizer must be off while FREQ2..FREQ0 change.
	if err := d.strobe(cc1101.SIDLE); err != nil {
		return err
	}
	f := [3]byte{byte(word >> 16), byte(word >> 8), byte(word)}
	if err := d.writeBurst(cc1101.FREQ2, f[:]); err != nil {
		return err
	}
	if err := d.strobe(cc1101.SCAL); err != nil {
		return err
	}
	d.freqMHz = mhz
	return nil
}

func (d *Device) startReceive() error {
	return d.strobe(cc1101.SRX)
}

// reset is the datasheet's manual power-on-reset: wiggle CS, wait for
// the crystal, then strobe SRES.
func (d *Device) reset() error {
	d.hw.BeginTransaction()
	d.hw.DigitalWrite(d.cs, true)
	d.hw.DelayMicros(5)
	d.hw.DigitalWrite(d.cs, false)
	d.hw.DelayMicros(10)
	d.hw.DigitalWrite(d.cs, true)
	d.hw.EndTransaction()
	d.hw.DelayMicros(41)
	if err := d.strobe(cc1101.SRES); err != nil {
		return err
	}
	d.hw.Delay(1)
	return nil
}

func (d *Device) acquire(needInit bool) error {
	d.mu.Lock()
	if needInit && !d.initialized {
		return ErrDeviceNotReady
	}
	return nil
}

func (d *Device) release() {
	d.mu.Unlock()
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
