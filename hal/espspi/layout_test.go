package espspi

import "testing"

func TestVariantESP32S3MergedDataLength(t *testing.T) {
	// The S3 replaced the separate mosi/miso bit-length registers with a
	// single SPI_MS_DLEN_REG; the layout absorbs the rename by aliasing
	// both offsets to it so the engine stays variant-agnostic.
	l := VariantESP32S3
	if l.OffMosiDLen != l.OffMisoDLen {
		t.Fatalf("data length offsets differ: %#x vs %#x", l.OffMosiDLen, l.OffMisoDLen)
	}
	if l.OffMosiDLen != 0x1C {
		t.Errorf("SPI_MS_DLEN_REG offset: got %#x want 0x1c", l.OffMosiDLen)
	}
	if e := VariantESP32; e.OffMosiDLen == e.OffMisoDLen {
		t.Error("ESP32 keeps distinct data length registers")
	}
}

func TestVariantESP32S3Registers(t *testing.T) {
	l := VariantESP32S3
	if l.Base != 0x6002_4000 {
		t.Errorf("GP-SPI2 base: got %#x", l.Base)
	}
	if l.BitUsr != 24 {
		t.Errorf("usr bit: got %d want 24", l.BitUsr)
	}
	if l.MatrixBase != 0x6000_4000 {
		t.Errorf("GPIO matrix base: got %#x", l.MatrixBase)
	}
	// FSPICLK/FSPIQ/FSPID matrix signals.
	if l.SigClkOut != 63 || l.SigMiso != 64 || l.SigMosi != 65 {
		t.Errorf("matrix signals: got %d/%d/%d", l.SigClkOut, l.SigMiso, l.SigMosi)
	}
	// Clock gating moved from DPORT to the SYSTEM block.
	if l.ClkEnReg != 0x600C_0018 || l.RstReg != 0x600C_0020 {
		t.Errorf("clock gate registers: got %#x/%#x", l.ClkEnReg, l.RstReg)
	}
	if l.MaxPrescaler != 0xF {
		t.Errorf("prescaler ceiling: got %#x want 0xf", l.MaxPrescaler)
	}
}

func TestLayoutDivider(t *testing.T) {
	cases := []struct {
		lay    Layout
		target uint32
		want   ClockConfig
	}{
		// Fast targets land on the same encodings on both variants.
		{VariantESP32, 2_000_000, ClockConfig{Prescaler: 19, Counter: 1, HalfCycle: 1}},
		{VariantESP32S3, 2_000_000, ClockConfig{Prescaler: 19, Counter: 1, HalfCycle: 1}},
		// 10kHz needs a total divider of 8000. The ESP32's 13-bit
		// prescaler reaches it exactly; the S3's 4-bit field tops out
		// at 80MHz/(16*64) = 78125Hz and saturates.
		{VariantESP32, 10_000, ClockConfig{Prescaler: 3999, Counter: 1, HalfCycle: 1}},
		{VariantESP32S3, 10_000, ClockConfig{Prescaler: 0xF, Counter: maxCounter}},
	}
	for _, tc := range cases {
		got := tc.lay.Divider(tc.target)
		if got != tc.want {
			t.Errorf("%dHz on base %#x: got %+v want %+v", tc.target, tc.lay.Base, got, tc.want)
		}
		if f := got.Frequency(tc.lay.BusClockHz); f > tc.target {
			t.Errorf("%dHz on base %#x: overshoots to %dHz", tc.target, tc.lay.Base, f)
		}
	}
}
