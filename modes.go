package e07x

import "github.com/e07rf/e07x/cc1101"

// Settling wait after reconfiguring the packet engine. FIFO access
// before this elapses returns garbage on the clone.
const packetModeSettleUs = 1000

// ConfigurePacketMode puts the radio in variable-length packet mode
// with status-byte appending. Each packet-control register is written
// in a single bus access; the clone corrupts its packet engine when
// the write is split across two accesses the way stock configuration
// sequences do it.
func (d *Device) ConfigurePacketMode() error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	return d.configurePacketMode()
}

func (d *Device) configurePacketMode() error {
	// Quality threshold 0, no autoflush, append status, no addressing.
	pc1 := cc1101.PackPktCtrl1(0, false, true, 0)
	if err := d.writeReg(cc1101.PKTCTRL1, pc1); err != nil {
		return err
	}
	// Variable-length mode, everything else (whitening, CRC, format)
	// preserved from the current configuration.
	pc0, err := d.readReg(cc1101.PKTCTRL0)
	if err != nil {
		return err
	}
	pc0 = cc1101.WithLengthConfig(pc0, cc1101.LengthVariable)
	if err := d.writeReg(cc1101.PKTCTRL0, pc0); err != nil {
		return err
	}
	d.crcOn = cc1101.CRCEnabled(pc0)
	d.hw.DelayMicros(packetModeSettleUs)
	return nil
}

// SetOOK switches between 2-FSK and ASK/OOK modulation, then
// re-asserts sync-word detection. Neither the modulation change nor a
// prior scan reliably leaves sync detection enabled, so it is restored
// unconditionally.
func (d *Device) SetOOK(enable bool) error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	m, err := d.readReg(cc1101.MDMCFG2)
	if err != nil {
		return err
	}
	format := byte(cc1101.Mod2FSK)
	if enable {
		format = cc1101.ModASKOOK
	}
	if err := d.writeReg(cc1101.MDMCFG2, cc1101.WithModFormat(m, format)); err != nil {
		return err
	}
	return d.restoreSyncMode()
}

// restoreSyncMode forces MDMCFG2's sync-detection field back to
// 16-of-16 bits matched.
func (d *Device) restoreSyncMode() error {
	m, err := d.readReg(cc1101.MDMCFG2)
	if err != nil {
		return err
	}
	return d.writeReg(cc1101.MDMCFG2, cc1101.WithSyncMode(m, cc1101.Sync16of16))
}

// SetSyncWord programs the two sync bytes the receiver matches on.
func (d *Device) SetSyncWord(sync1, sync0 byte) error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	return d.writeBurst(cc1101.SYNC1, []byte{sync1, sync0})
}

// CRCEnabled reports whether checksum enforcement is active for
// received packets.
func (d *Device) CRCEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.crcOn
}

// SetCRC toggles hardware CRC generation and checking.
func (d *Device) SetCRC(enable bool) error {
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	pc0, err := d.readReg(cc1101.PKTCTRL0)
	if err != nil {
		return err
	}
	if enable {
		pc0 |= 1 << 2
	} else {
		pc0 &^= 1 << 2
	}
	if err := d.writeReg(cc1101.PKTCTRL0, pc0); err != nil {
		return err
	}
	d.crcOn = enable
	return nil
}
