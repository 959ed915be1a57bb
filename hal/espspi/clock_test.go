package espspi

import "testing"

const apbHz = 80_000_000

func TestComputeDividerExact(t *testing.T) {
	cases := []struct {
		target uint32
		want   ClockConfig
	}{
		// 80MHz/((pre+1)(cnt+1)); first exact match is found at the
		// lowest counter.
		{40_000_000, ClockConfig{Prescaler: 0, Counter: 1, HalfCycle: 1}},
		{20_000_000, ClockConfig{Prescaler: 1, Counter: 1, HalfCycle: 1}},
		{10_000_000, ClockConfig{Prescaler: 3, Counter: 1, HalfCycle: 1}},
		{8_000_000, ClockConfig{Prescaler: 4, Counter: 1, HalfCycle: 1}},
		{4_000_000, ClockConfig{Prescaler: 9, Counter: 1, HalfCycle: 1}},
		{2_000_000, ClockConfig{Prescaler: 19, Counter: 1, HalfCycle: 1}},
		{500_000, ClockConfig{Prescaler: 79, Counter: 1, HalfCycle: 1}},
		{100_000, ClockConfig{Prescaler: 399, Counter: 1, HalfCycle: 1}},
	}
	for _, tc := range cases {
		got := ComputeDivider(apbHz, tc.target)
		if got != tc.want {
			t.Errorf("%dHz: got %+v want %+v", tc.target, got, tc.want)
		}
		if f := got.Frequency(apbHz); f != tc.target {
			t.Errorf("%dHz: decodes to %dHz", tc.target, f)
		}
	}
}

func TestComputeDividerInexact(t *testing.T) {
	// 9MHz cannot be hit exactly: the closest reachable value from below
	// is 80MHz/9 at divider 3*3.
	got := ComputeDivider(apbHz, 9_000_000)
	want := ClockConfig{Prescaler: 2, Counter: 2, HalfCycle: 1}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
	if f := got.Frequency(apbHz); f != 8_888_888 {
		t.Errorf("decodes to %dHz", f)
	}
}

func TestComputeDividerNeverOvershoots(t *testing.T) {
	for _, target := range []uint32{153, 999, 7_777, 123_456, 1_234_567,
		3_333_333, 11_000_000, 26_000_000, 79_999_999} {
		got := ComputeDivider(apbHz, target)
		f := got.Frequency(apbHz)
		if f > target {
			t.Errorf("%dHz: overshoots to %dHz (%+v)", target, f, got)
		}
		if f == 0 {
			t.Errorf("%dHz: no encoding found", target)
		}
	}
}

func TestComputeDividerBypass(t *testing.T) {
	for _, target := range []uint32{apbHz, apbHz + 1, 160_000_000} {
		got := ComputeDivider(apbHz, target)
		if !got.Bypass {
			t.Errorf("%dHz: expected bypass, got %+v", target, got)
		}
		if f := got.Frequency(apbHz); f != apbHz {
			t.Errorf("%dHz: bypass decodes to %dHz", target, f)
		}
	}
}

func TestComputeDividerSaturates(t *testing.T) {
	// Slowest reachable SCK is 80MHz/(8192*64) = 152Hz; anything below
	// that gets the slowest encoding rather than a bogus closest match.
	got := ComputeDivider(apbHz, 100)
	want := ClockConfig{Prescaler: maxPrescaler, Counter: maxCounter}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestClockPackRoundTrip(t *testing.T) {
	cases := []ClockConfig{
		{Prescaler: 19, Counter: 1, HalfCycle: 1},
		{Prescaler: 2, Counter: 2, HalfCycle: 1},
		{Prescaler: maxPrescaler, Counter: maxCounter, HalfCycle: 32},
		{Bypass: true},
	}
	for _, c := range cases {
		if got := UnpackClock(c.Pack()); got != c {
			t.Errorf("round trip %+v -> %#x -> %+v", c, c.Pack(), got)
		}
	}
	// Bit positions per the hardware layout.
	c := ClockConfig{Prescaler: 19, Counter: 1, HalfCycle: 1}
	if c.Pack() != 1|1<<12|19<<18 {
		t.Errorf("pack: got %#x", c.Pack())
	}
	if (ClockConfig{Bypass: true}).Pack() != 1<<31 {
		t.Error("bypass bit misplaced")
	}
}
