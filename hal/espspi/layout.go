// Package espspi drives an ESP32-family SPI peripheral at the register
// level, one byte per transaction, with exclusive ownership of its pins.
// The clock divider math and the register layout description are portable;
// the engine itself builds only for tinygo targets.
package espspi

// Layout describes where a chip variant places the SPI peripheral's
// registers and how its GPIO matrix routes the bus signals. The driver
// never hardcodes addresses; everything variant-specific lives here so
// adding a new chip is a matter of filling in a value.
type Layout struct {
	// Base is the peripheral's MMIO base address.
	Base uintptr

	// Register byte offsets from Base.
	OffCmd      uintptr // command register, hosts the transfer-start bit
	OffCtrl     uintptr // bit order and IO mode
	OffClock    uintptr // packed ClockConfig
	OffUser     uintptr // phase enables, full-duplex, clock edge
	OffUser1    uintptr // address/dummy cycle counts
	OffMosiDLen uintptr // outgoing bit length minus one
	OffMisoDLen uintptr // incoming bit length minus one
	OffMisc     uintptr // clock idle polarity
	OffSlave    uintptr // slave mode and interrupt flags
	OffDataBuf  uintptr // first word of the transfer buffer

	// Bit positions within the registers above.
	BitUsr        uint8 // OffCmd: set to start, hardware clears when done
	BitWrBitOrder uint8 // OffCtrl: 1 = LSB first on MOSI
	BitRdBitOrder uint8 // OffCtrl: 1 = LSB first on MISO
	BitDoutDin    uint8 // OffUser: full-duplex
	BitCkOutEdge  uint8 // OffUser: output clock edge (CPHA)
	BitUsrMosi    uint8 // OffUser: enable write phase
	BitUsrMiso    uint8 // OffUser: enable read phase
	BitCkIdleEdge uint8 // OffMisc: clock idle level (CPOL)

	// GPIO matrix routing.
	MatrixBase    uintptr // GPIO peripheral base
	OffFuncInSel  uintptr // input select table, one word per signal
	OffFuncOutSel uintptr // output select table, one word per GPIO
	SigClkOut     uint32  // matrix signal index for SCLK
	SigMiso       uint32  // matrix signal index for the Q line
	SigMosi       uint32  // matrix signal index for the D line
	OutSelDetach  uint32  // func-out-sel value routing a pad back to simple GPIO
	InSelDetach   uint32  // func-in-sel value detaching an input signal

	// Peripheral clock gating.
	ClkEnReg   uintptr // clock enable register (DPORT or SYSTEM block)
	RstReg     uintptr // reset register
	ClkEnBit   uint8   // bit for this SPI instance in both registers
	BusClockHz uint32  // frequency of the clock feeding the divider

	// MaxPrescaler is the largest value the clock register's pre-divider
	// field holds. 13 bits on the ESP32, shrunk to 4 on the S2/S3
	// generation.
	MaxPrescaler uint16
}

// VariantESP32 maps the SPI2 (HSPI) instance of the original ESP32.
var VariantESP32 = Layout{
	Base:        0x3FF6_4000,
	OffCmd:      0x00,
	OffCtrl:     0x08,
	OffClock:    0x18,
	OffUser:     0x1C,
	OffUser1:    0x20,
	OffMosiDLen: 0x28,
	OffMisoDLen: 0x2C,
	OffMisc:     0x34,
	OffSlave:    0x38,
	OffDataBuf:  0x80,

	BitUsr:        18,
	BitWrBitOrder: 26,
	BitRdBitOrder: 25,
	BitDoutDin:    0,
	BitCkOutEdge:  7,
	BitUsrMosi:    27,
	BitUsrMiso:    28,
	BitCkIdleEdge: 29,

	MatrixBase:    0x3FF4_4000,
	OffFuncInSel:  0x130,
	OffFuncOutSel: 0x530,
	SigClkOut:     8,
	SigMiso:       9,
	SigMosi:       10,
	OutSelDetach:  0x100,
	InSelDetach:   0x30,

	ClkEnReg:   0x3FF0_00C0,
	RstReg:     0x3FF0_00C4,
	ClkEnBit:   6,
	BusClockHz: 80_000_000,

	MaxPrescaler: 0x1FFF,
}

// VariantESP32S3 maps the GP-SPI2 (FSPI) instance of the ESP32-S3. The
// S2/S3 generation collapsed the two data-length registers into a single
// SPI_MS_DLEN_REG, moved the transfer-start bit, rerouted the bus through
// the FSPI matrix signals and gates the peripheral clock from the SYSTEM
// block instead of DPORT. Both data-length offsets alias the merged
// register; the engine programs the same bit count through either name.
var VariantESP32S3 = Layout{
	Base:        0x6002_4000,
	OffCmd:      0x00,
	OffCtrl:     0x08,
	OffClock:    0x0C,
	OffUser:     0x10,
	OffUser1:    0x14,
	OffMosiDLen: 0x1C,
	OffMisoDLen: 0x1C,
	OffMisc:     0x20,
	OffSlave:    0xE0,
	OffDataBuf:  0x98,

	BitUsr:        24,
	BitWrBitOrder: 26,
	BitRdBitOrder: 25,
	BitDoutDin:    0,
	BitCkOutEdge:  7,
	BitUsrMosi:    27,
	BitUsrMiso:    28,
	BitCkIdleEdge: 29,

	MatrixBase:    0x6000_4000,
	OffFuncInSel:  0x154,
	OffFuncOutSel: 0x554,
	SigClkOut:     63,
	SigMiso:       64,
	SigMosi:       65,
	OutSelDetach:  0x100,
	InSelDetach:   0x3C,

	ClkEnReg:   0x600C_0018,
	RstReg:     0x600C_0020,
	ClkEnBit:   6,
	BusClockHz: 80_000_000,

	MaxPrescaler: 0xF,
}

// Divider computes the clock register value reaching targetHz on this
// variant's bus clock without exceeding it. Chips with the narrow
// pre-divider field saturate to their slowest reachable rate sooner.
func (l Layout) Divider(targetHz uint32) ClockConfig {
	return computeDivider(l.BusClockHz, targetHz, l.MaxPrescaler)
}
