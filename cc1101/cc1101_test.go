package cc1101

import "testing"

func TestRSSIToDBm(t *testing.T) {
	// Full range against the two-piece datasheet formula.
	for r := 0; r < 256; r++ {
		want := float32(r)/2 - 74
		if r >= 128 {
			want = (float32(r)-256)/2 - 74
		}
		if got := RSSIToDBm(uint8(r)); got != want {
			t.Errorf("raw=%d: got %f want %f", r, got, want)
		}
	}
	// Seam between the two pieces.
	if got := RSSIToDBm(127); got != 127.0/2-74 {
		t.Errorf("raw=127: got %f", got)
	}
	if got := RSSIToDBm(128); got != (128.0-256)/2-74 {
		t.Errorf("raw=128: got %f", got)
	}
	// Known points: 0 -> -74dBm, 255 -> -74.5dBm.
	if got := RSSIToDBm(0); got != -74 {
		t.Errorf("raw=0: got %f", got)
	}
	if got := RSSIToDBm(255); got != -74.5 {
		t.Errorf("raw=255: got %f", got)
	}
}

func TestLQI(t *testing.T) {
	if l := LQI(0x80); !l.CRCOk() || l.Value() != 0 {
		t.Errorf("0x80: crc=%v value=%d", l.CRCOk(), l.Value())
	}
	if l := LQI(0x7F); l.CRCOk() || l.Value() != 127 {
		t.Errorf("0x7F: crc=%v value=%d", l.CRCOk(), l.Value())
	}
	if l := LQI(0xAA); !l.CRCOk() || l.Value() != 0x2A {
		t.Errorf("0xAA: crc=%v value=%d", l.CRCOk(), l.Value())
	}
}

func TestFrequencyWord(t *testing.T) {
	cases := []struct {
		mhz  float64
		word uint32
	}{
		{433.0, 0x10A762}, // 433.0 * 65536 / 26 = 1091426.46 -> 0x10A762
		{315.0, 0x0C208B},
		{868.3, 0x21656A},
		{915.0, 0x23313B},
	}
	for _, tc := range cases {
		got, err := FrequencyWord(tc.mhz)
		if err != nil {
			t.Fatalf("%.1fMHz: %v", tc.mhz, err)
		}
		if got != tc.word {
			t.Errorf("%.1fMHz: got %#06x want %#06x", tc.mhz, got, tc.word)
		}
		// Round trip within one synthesizer step (~397Hz).
		back := WordFrequency(got)
		if diff := back - tc.mhz; diff > 0.0005 || diff < -0.0005 {
			t.Errorf("%.1fMHz: round trip off by %fMHz", tc.mhz, diff)
		}
	}
	for _, bad := range []float64{0, 299.9, 350, 386, 470, 778, 929, 2400} {
		if _, err := FrequencyWord(bad); err == nil {
			t.Errorf("%.1fMHz: expected out-of-band error", bad)
		}
	}
}

func TestPackPktCtrl1(t *testing.T) {
	// The clone configuration: PQT=0, no autoflush, append status, no
	// address filtering.
	if got := PackPktCtrl1(0, false, true, 0); got != 0x04 {
		t.Errorf("got %#02x want 0x04", got)
	}
	if got := PackPktCtrl1(7, true, true, 0b01); got != 0xED {
		t.Errorf("got %#02x want 0xED", got)
	}
}

func TestPktCtrl0Fields(t *testing.T) {
	// Variable length forced while whitening (bit6), format and CRC (bit2)
	// bits survive untouched.
	prior := byte(0b0100_0110) // whitening on, CRC on, fixed length
	got := WithLengthConfig(prior, LengthVariable)
	if got != 0b0100_0101 {
		t.Errorf("got %#08b", got)
	}
	if !CRCEnabled(got) {
		t.Error("CRC bit lost")
	}
	if CRCEnabled(WithLengthConfig(0, LengthVariable)) {
		t.Error("CRC bit appeared from nowhere")
	}
}

func TestMDMCFG2Fields(t *testing.T) {
	start := byte(0b1001_0110) // DC filter off, GFSK, sync 16/16 + carrier sense
	ook := WithModFormat(start, ModASKOOK)
	if ook != 0b1011_0110 {
		t.Errorf("WithModFormat: got %#08b", ook)
	}
	restored := WithSyncMode(ook&^byte(SyncModeMask), Sync16of16)
	if restored&SyncModeMask != Sync16of16 {
		t.Errorf("WithSyncMode: got %#08b", restored)
	}
	// Everything above the sync bits is preserved.
	if restored&^byte(SyncModeMask) != ook&^byte(SyncModeMask) {
		t.Errorf("WithSyncMode clobbered high bits: %#08b", restored)
	}
}
