package e07x

import "github.com/e07rf/e07x/cc1101"

// busAccess brackets one framed register access: lease the bus, drop
// chip select, run fn, then restore both no matter how fn exits.
func (d *Device) busAccess(fn func() error) error {
	d.hw.BeginTransaction()
	d.hw.DigitalWrite(d.cs, false)
	err := fn()
	d.hw.DigitalWrite(d.cs, true)
	d.hw.EndTransaction()
	return err
}

func (d *Device) readReg(addr uint8) (v uint8, err error) {
	err = d.busAccess(func() error {
		if _, err := d.hw.Transfer(addr | cc1101.CmdRead); err != nil {
			return err
		}
		var err error
		v, err = d.hw.Transfer(0)
		return err
	})
	return v, err
}

// readBurst sets the burst bit itself. On this clone that bit is
// mandatory for the status range (0x30-0x3D) and the FIFO, which a
// plain read answers with stale data.
func (d *Device) readBurst(addr uint8, dst []byte) error {
	return d.busAccess(func() error {
		if _, err := d.hw.Transfer(addr | cc1101.CmdRead | cc1101.CmdBurst); err != nil {
			return err
		}
		for i := range dst {
			b, err := d.hw.Transfer(0)
			if err != nil {
				return err
			}
			dst[i] = b
		}
		return nil
	})
}

// readStatus burst-frames a single-byte read of a status register.
func (d *Device) readStatus(addr uint8) (uint8, error) {
	var b [1]byte
	err := d.readBurst(addr, b[:])
	return b[0], err
}

func (d *Device) writeReg(addr uint8, v uint8) error {
	return d.busAccess(func() error {
		if _, err := d.hw.Transfer(addr); err != nil {
			return err
		}
		_, err := d.hw.Transfer(v)
		return err
	})
}

func (d *Device) writeBurst(addr uint8, src []byte) error {
	return d.busAccess(func() error {
		if _, err := d.hw.Transfer(addr | cc1101.CmdBurst); err != nil {
			return err
		}
		for _, b := range src {
			if _, err := d.hw.Transfer(b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *Device) strobe(cmd uint8) error {
	return d.busAccess(func() error {
		_, err := d.hw.Transfer(cmd)
		return err
	})
}
