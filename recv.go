package e07x

import (
	"log/slog"

	"github.com/e07rf/e07x/cc1101"
	"github.com/e07rf/e07x/hal"
)

// RSSI reads the live signal strength in dBm. Every call hits the
// hardware; nothing is cached, which is what makes spectrum scanning
// with it meaningful.
func (d *Device) RSSI() (float32, error) {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return 0, err
	}
	return d.rssi()
}

func (d *Device) rssi() (float32, error) {
	raw, err := d.readStatus(cc1101.RSSIREG)
	if err != nil {
		return 0, err
	}
	return cc1101.RSSIToDBm(raw), nil
}

// PacketLength returns the pending packet's declared length. With
// refresh false a previously fetched value is reused; otherwise the
// first FIFO byte is read, which in variable-length mode is always the
// length field.
func (d *Device) PacketLength(refresh bool) (uint8, error) {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return 0, err
	}
	return d.packetLength(refresh)
}

func (d *Device) packetLength(refresh bool) (uint8, error) {
	if !refresh && d.pktLenValid {
		return d.pktLen, nil
	}
	n, err := d.readStatus(cc1101.FIFO)
	if err != nil {
		return 0, err
	}
	d.pktLen, d.pktLenValid = n, true
	return n, nil
}

// ReadData drains one received packet into buf and returns the number
// of payload bytes delivered. The two trailing status bytes the chip
// appends are consumed and kept for LastLQI and LastPacketRSSI.
//
// A declared length of zero or above MaxPacketLength flushes the RX
// FIFO and fails with ErrInvalidPayload. A failed checksum fails with
// ErrCRCMismatch and delivers nothing, unless CRC was configured off.
// Receive mode is re-armed on every exit path; the radio is never left
// deaf after a read attempt.
func (d *Device) ReadData(buf []byte) (n int, err error) {
	err = d.acquire(true)
	defer d.release()
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := d.startReceive(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	d.pktLenValid = false
	length, err := d.packetLength(true)
	if err != nil {
		return 0, err
	}
	if length == 0 || length > cc1101.MaxPacketLength {
		d.warn("ReadData:badlen", slog.Uint64("len", uint64(length)))
		d.strobe(cc1101.SFRX)
		return 0, ErrInvalidPayload
	}

	n = int(length)
	if n > len(buf) {
		n = len(buf)
	}
	if err = d.readBurst(cc1101.FIFO, buf[:n]); err != nil {
		return 0, err
	}
	var tail [2]byte
	if err = d.readBurst(cc1101.FIFO, tail[:1]); err != nil {
		return 0, err
	}
	if err = d.readBurst(cc1101.FIFO, tail[1:]); err != nil {
		return 0, err
	}
	d.lastRSSIRaw = tail[0]
	d.lastLQI = cc1101.LQI(tail[1])

	if d.crcOn && !d.lastLQI.CRCOk() {
		d.debug("ReadData:badcrc")
		return 0, ErrCRCMismatch
	}
	if d._traceenabled {
		d.trace("ReadData:ok",
			slog.Int("len", n),
			slog.Uint64("lqi", uint64(d.lastLQI.Value())),
		)
	}
	return n, nil
}

// ReceiveReady reports whether the RX FIFO holds any bytes.
func (d *Device) ReceiveReady() (bool, error) {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return false, err
	}
	n, err := d.readStatus(cc1101.RXBYTES)
	return n&0x7F != 0, err
}

// LastLQI returns the link-quality value of the last packet delivered
// by ReadData, CRC bit stripped.
func (d *Device) LastLQI() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastLQI.Value()
}

// LastPacketRSSI returns the signal strength sampled by the chip at
// the moment the last packet's sync word was received.
func (d *Device) LastPacketRSSI() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cc1101.RSSIToDBm(d.lastRSSIRaw)
}

// AttachPacketInterrupt runs fn whenever a packet finishes arriving.
// GDO0 is programmed at Init to assert on sync word and deassert at
// end of packet, so the falling edge marks packet completion.
func (d *Device) AttachPacketInterrupt(fn func()) error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	if d.gdo0 == hal.NoPin {
		return ErrInvalidParams
	}
	return d.hw.AttachInterrupt(d.gdo0, hal.EdgeFalling, fn)
}

func (d *Device) DetachPacketInterrupt() error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	if d.gdo0 == hal.NoPin {
		return nil
	}
	return d.hw.DetachInterrupt(d.gdo0)
}
