// Package cc1101 contains the register-level wire contract shared by the
// TI CC1101 and its clones, as far as this driver stack needs it. Register
// bit layouts are expressed as explicit pack/unpack helpers on plain bytes
// so no code depends on struct bit-field layout.
package cc1101

import "errors"

// SPI command byte framing. The address occupies the low 6 bits; bit 7
// selects read, bit 6 selects burst access. On the reference part burst is
// optional for single-register reads. On the E07-400MM clone any read of a
// status register (0x30-0x3D) or the FIFO must set the burst bit or the
// returned byte is stale.
const (
	CmdRead  = 0x80
	CmdBurst = 0x40

	RegMask = 0x3F
)

// Configuration registers.
const (
	IOCFG2   = 0x00 // GDO2 output pin configuration
	IOCFG1   = 0x01
	IOCFG0   = 0x02 // GDO0 output pin configuration
	FIFOTHR  = 0x03
	SYNC1    = 0x04
	SYNC0    = 0x05
	PKTLEN   = 0x06
	PKTCTRL1 = 0x07
	PKTCTRL0 = 0x08
	ADDR     = 0x09
	CHANNR   = 0x0A
	FSCTRL1  = 0x0B
	FSCTRL0  = 0x0C
	FREQ2    = 0x0D // frequency control word, high byte
	FREQ1    = 0x0E
	FREQ0    = 0x0F
	MDMCFG4  = 0x10
	MDMCFG3  = 0x11
	MDMCFG2  = 0x12
	MDMCFG1  = 0x13
	MDMCFG0  = 0x14
	DEVIATN  = 0x15
	MCSM2    = 0x16
	MCSM1    = 0x17
	MCSM0    = 0x18
	FOCCFG   = 0x19
	BSCFG    = 0x1A
	AGCCTRL2 = 0x1B
	AGCCTRL1 = 0x1C
	AGCCTRL0 = 0x1D
	WORCTRL  = 0x20
	FREND1   = 0x21
	FREND0   = 0x22
	FSCAL3   = 0x23
	FSCAL2   = 0x24
	FSCAL1   = 0x25
	FSCAL0   = 0x26
	TEST2    = 0x2C
	TEST1    = 0x2D
	TEST0    = 0x2E
)

// Command strobes. A strobe is a single header byte with no data phase.
const (
	SRES    = 0x30 // reset chip
	SFSTXON = 0x31
	SXOFF   = 0x32
	SCAL    = 0x33 // calibrate frequency synthesizer
	SRX     = 0x34 // enable receive
	STX     = 0x35 // enable transmit
	SIDLE   = 0x36 // exit RX/TX, turn off frequency synthesizer
	SWOR    = 0x38
	SPWD    = 0x39 // power down when CSn goes high
	SFRX    = 0x3A // flush the RX FIFO
	SFTX    = 0x3B // flush the TX FIFO
	SWORRST = 0x3C
	SNOP    = 0x3D
)

// Status registers. Same address space as the strobes; distinguished on the
// wire by the burst bit, which is exactly what the clone gets wrong for
// plain reads.
const (
	PARTNUM   = 0x30
	VERSION   = 0x31
	FREQEST   = 0x32
	LQIREG    = 0x33
	RSSIREG   = 0x34
	MARCSTATE = 0x35
	PKTSTATUS = 0x38
	TXBYTES   = 0x3A
	RXBYTES   = 0x3B
)

const (
	PATABLE = 0x3E
	FIFO    = 0x3F
)

// MaxPacketLength is the largest payload the 64-byte FIFO can hold in
// variable-length mode: one length byte plus payload.
const MaxPacketLength = 63

// CrystalHz is the reference oscillator of the E07-400MM module.
const CrystalHz = 26_000_000

// MARCSTATE values of interest.
const (
	StateIdle           = 0x01
	StateRx             = 0x0D
	StateRxFIFOOverrun  = 0x11
	StateTx             = 0x13
	StateTxFIFOUnderrun = 0x16
)

// LQI is the link-quality status byte the chip appends after the payload
// when append-status is enabled. Bit 7 reports CRC, the low 7 bits the
// link quality estimate (lower is better).
type LQI uint8

func (l LQI) CRCOk() bool  { return l&0x80 != 0 }
func (l LQI) Value() uint8 { return uint8(l) & 0x7F }

// RSSIToDBm converts a raw RSSI register byte to dBm using the two-piece
// datasheet formula. The raw value is a signed offset in half-dB steps
// around the -74dBm reference level.
func RSSIToDBm(raw uint8) float32 {
	if raw >= 128 {
		return (float32(raw)-256)/2 - 74
	}
	return float32(raw)/2 - 74
}

// PKTCTRL1 field layout: bits 7-5 preamble quality threshold, bit 3 CRC
// autoflush, bit 2 append status, bits 1-0 address filtering.
const (
	PktCtrl1CRCAutoflush = 1 << 3
	PktCtrl1AppendStatus = 1 << 2
	PktCtrl1AddrMask     = 0b11
)

// PackPktCtrl1 builds a PKTCTRL1 value from its fields.
func PackPktCtrl1(pqt uint8, autoflush, appendStatus bool, addrMode uint8) byte {
	b := byte(pqt&0b111) << 5
	if autoflush {
		b |= PktCtrl1CRCAutoflush
	}
	if appendStatus {
		b |= PktCtrl1AppendStatus
	}
	return b | byte(addrMode&PktCtrl1AddrMask)
}

// PKTCTRL0 field layout: bit 6 data whitening, bits 5-4 packet format,
// bit 2 CRC enable, bits 1-0 length configuration.
const (
	PktCtrl0LengthMask = 0b11

	LengthFixed    = 0b00
	LengthVariable = 0b01
	LengthInfinite = 0b10
)

// WithLengthConfig replaces the length-configuration bits of a PKTCTRL0
// value, preserving whitening, packet format and CRC settings.
func WithLengthConfig(pktctrl0 byte, lencfg byte) byte {
	return pktctrl0&^PktCtrl0LengthMask | lencfg&PktCtrl0LengthMask
}

// CRCEnabled reports the CRC_EN bit of a PKTCTRL0 value.
func CRCEnabled(pktctrl0 byte) bool { return pktctrl0&(1<<2) != 0 }

// MDMCFG2 field layout: bits 6-4 modulation format, bits 2-0 sync-word
// detection mode.
const (
	ModFormatMask = 0b111 << 4
	Mod2FSK       = 0b000 << 4
	ModGFSK       = 0b001 << 4
	ModASKOOK     = 0b011 << 4

	SyncModeMask = 0b111
	// Sync16of16 requires all 16 sync bits to match before the receiver
	// starts delivering data. The clone driver restores this mode after
	// every modulation change and scan.
	Sync16of16 = 0b010
	SyncNone   = 0b000
)

// WithModFormat replaces the modulation-format bits of an MDMCFG2 value.
func WithModFormat(mdmcfg2, format byte) byte {
	return mdmcfg2&^byte(ModFormatMask) | format&ModFormatMask
}

// WithSyncMode replaces the sync-word detection bits of an MDMCFG2 value.
func WithSyncMode(mdmcfg2, mode byte) byte {
	return mdmcfg2&^byte(SyncModeMask) | mode&SyncModeMask
}

// ErrFrequency is returned for carrier frequencies outside the bands the
// synthesizer can lock: 300-348, 387-464 and 779-928 MHz.
var ErrFrequency = errors.New("cc1101: frequency out of band")

// FrequencyWord converts a carrier frequency in MHz to the 24-bit FREQ
// control word: f_carrier = (crystal/2^16) * FREQ.
func FrequencyWord(mhz float64) (uint32, error) {
	if !(mhz >= 300 && mhz <= 348) && !(mhz >= 387 && mhz <= 464) && !(mhz >= 779 && mhz <= 928) {
		return 0, ErrFrequency
	}
	const crystalMHz = CrystalHz / 1e6
	word := uint32(mhz*(1<<16)/crystalMHz + 0.5)
	return word & 0xFF_FFFF, nil
}

// WordFrequency is the inverse of FrequencyWord, returning MHz.
func WordFrequency(word uint32) float64 {
	const crystalMHz = CrystalHz / 1e6
	return float64(word&0xFF_FFFF) * crystalMHz / (1 << 16)
}
