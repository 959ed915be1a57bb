package e07x

import (
	"log/slog"

	"github.com/e07rf/e07x/cc1101"
)

// RSSIInvalid marks a scan point whose frequency could not be
// programmed. The scan records it and moves on rather than aborting.
const RSSIInvalid float32 = -999.0

// Dwell bounds for ScanRSSI. The lower bound covers the AGC settling
// time after a frequency hop; the upper bound keeps a full sweep from
// stalling the caller for seconds.
const (
	minDwellUs = 500
	maxDwellUs = 50_000
)

// ScanRSSI sweeps len(out) frequency points centered on centerMHz,
// stepKHz apart, and records a live RSSI reading for each. The sweep
// starts at centerMHz - (len(out)/2)*step and walks upward. dwellUs is
// the per-point settling wait, clamped into [500, 50000] microseconds.
//
// The radio is left in idle when the sweep completes; the previous
// carrier and receive state are not restored.
func (d *Device) ScanRSSI(out []float32, centerMHz, stepKHz float64, dwellUs uint32) error {
	if len(out) == 0 {
		return ErrInvalidParams
	}
	err := d.acquire(true)
	defer d.release()
	if err != nil {
		return err
	}
	dwellUs = clamp(dwellUs, minDwellUs, maxDwellUs)

	stepMHz := stepKHz / 1000
	freq := centerMHz - float64(len(out)/2)*stepMHz
	d.debug("ScanRSSI:start",
		slog.Int("points", len(out)),
		slog.Float64("startMHz", freq),
		slog.Float64("stepKHz", stepKHz),
		slog.Uint64("dwellUs", uint64(dwellUs)),
	)

	for i := range out {
		if err := d.setFrequency(freq); err != nil {
			d.warn("ScanRSSI:badfreq", slog.Float64("mhz", freq))
			out[i] = RSSIInvalid
			freq += stepMHz
			continue
		}
		// Programming the carrier dropped the chip to idle.
		if err := d.startReceive(); err != nil {
			return err
		}
		d.hw.DelayMicros(dwellUs)
		dbm, err := d.rssi()
		if err != nil {
			return err
		}
		out[i] = dbm
		freq += stepMHz
	}
	return d.strobe(cc1101.SIDLE)
}
