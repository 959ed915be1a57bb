//go:build tinygo

package espspi

import (
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"

	"github.com/e07rf/e07x/hal"
)

// routed through the GPIO matrix rather than the IO_MUX direct path.
const sigInMatrix = 1 << 7

var errTxSliceMismatch = errors.New("espspi: tx slice length mismatch")

// Engine drives an ESP32-family SPI peripheral through its registers,
// one byte per hardware transaction. The vendor transaction queue buys
// nothing at this scale: the radio's longest burst is 64 bytes and every
// access is bracketed by a chip-select toggle anyway.
//
// The engine owns its pins exclusively, so BeginTransaction and
// EndTransaction are no-ops.
type Engine struct {
	lay  Layout
	sck  hal.Pin
	miso hal.Pin
	mosi hal.Pin
	hz   uint32
}

// NewEngine returns an engine for the peripheral described by lay,
// clocking SCK at or below hz. Open must be called before use.
func NewEngine(lay Layout, sck, miso, mosi hal.Pin, hz uint32) *Engine {
	return &Engine{lay: lay, sck: sck, miso: miso, mosi: mosi, hz: hz}
}

var _ hal.SPI = (*Engine)(nil)

func (e *Engine) reg(off uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(e.lay.Base + off))
}

func mmio(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// Open ungates the peripheral clock, routes the three bus pads through
// the GPIO matrix and programs mode 0, MSB-first, full-duplex byte
// transfers at the configured clock.
func (e *Engine) Open() error {
	lay := &e.lay
	mmio(lay.ClkEnReg).SetBits(1 << lay.ClkEnBit)
	mmio(lay.RstReg).ClearBits(1 << lay.ClkEnBit)

	machine.Pin(e.sck).Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.Pin(e.mosi).Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.Pin(e.miso).Configure(machine.PinConfig{Mode: machine.PinInput})
	e.outSel(e.sck).Set(lay.SigClkOut)
	e.outSel(e.mosi).Set(lay.SigMosi)
	e.inSel(lay.SigMiso).Set(uint32(e.miso) | sigInMatrix)

	e.reg(lay.OffSlave).Set(0)
	e.reg(lay.OffCtrl).ClearBits(1<<lay.BitWrBitOrder | 1<<lay.BitRdBitOrder)
	e.reg(lay.OffUser).Set(1<<lay.BitDoutDin | 1<<lay.BitUsrMosi | 1<<lay.BitUsrMiso)
	e.reg(lay.OffUser1).Set(0)
	e.reg(lay.OffMisc).ClearBits(1 << lay.BitCkIdleEdge)
	e.reg(lay.OffClock).Set(lay.Divider(e.hz).Pack())
	return nil
}

func (e *Engine) BeginTransaction() {}
func (e *Engine) EndTransaction()   {}

// Transfer clocks one byte out on MOSI and returns the byte sampled on
// MISO, spinning until the peripheral clears the start bit.
func (e *Engine) Transfer(b byte) (byte, error) {
	lay := &e.lay
	e.reg(lay.OffMosiDLen).Set(7)
	e.reg(lay.OffMisoDLen).Set(7)
	e.reg(lay.OffDataBuf).Set(uint32(b))
	cmd := e.reg(lay.OffCmd)
	cmd.SetBits(1 << lay.BitUsr)
	for cmd.HasBits(1 << lay.BitUsr) {
	}
	return byte(e.reg(lay.OffDataBuf).Get()), nil
}

func (e *Engine) Tx(w, r []byte) error {
	if r == nil {
		for _, b := range w {
			e.Transfer(b)
		}
		return nil
	}
	if len(w) != len(r) {
		return errTxSliceMismatch
	}
	for i := range w {
		r[i], _ = e.Transfer(w[i])
	}
	return nil
}

// Close detaches the pads from the matrix and gates the peripheral
// clock, leaving the pins as plain GPIO.
func (e *Engine) Close() error {
	lay := &e.lay
	e.outSel(e.sck).Set(lay.OutSelDetach)
	e.outSel(e.mosi).Set(lay.OutSelDetach)
	e.inSel(lay.SigMiso).Set(lay.InSelDetach)
	mmio(lay.RstReg).SetBits(1 << lay.ClkEnBit)
	mmio(lay.ClkEnReg).ClearBits(1 << lay.ClkEnBit)
	return nil
}

func (e *Engine) outSel(pad hal.Pin) *volatile.Register32 {
	return mmio(e.lay.MatrixBase + e.lay.OffFuncOutSel + 4*uintptr(pad))
}

func (e *Engine) inSel(sig uint32) *volatile.Register32 {
	return mmio(e.lay.MatrixBase + e.lay.OffFuncInSel + 4*uintptr(sig))
}
