package espspi

// ClockConfig is the decoded form of the SPI peripheral's clock register.
// The generated SCK frequency is busClock/((Prescaler+1)*(Counter+1)),
// or the undivided bus clock when Bypass is set.
type ClockConfig struct {
	Prescaler uint16 // 13-bit pre-divider of the bus clock
	Counter   uint8  // 6-bit SCK cycle length in pre-divided ticks
	HalfCycle uint8  // 6-bit tick at which SCK toggles low
	Bypass    bool   // SCK equals the bus clock, divider unused
}

const (
	maxPrescaler = 0x1FFF
	maxCounter   = 0x3F
)

// Frequency decodes the SCK frequency this configuration produces on a
// bus running at busHz.
func (c ClockConfig) Frequency(busHz uint32) uint32 {
	if c.Bypass {
		return busHz
	}
	return busHz / ((uint32(c.Prescaler) + 1) * (uint32(c.Counter) + 1))
}

// Pack encodes the configuration into the hardware register layout:
// bits 5:0 half-cycle, 11:6 unused here, 17:12 counter, 30:18 prescaler,
// 31 bypass.
func (c ClockConfig) Pack() uint32 {
	if c.Bypass {
		return 1 << 31
	}
	return uint32(c.HalfCycle&maxCounter) |
		uint32(c.Counter&maxCounter)<<12 |
		uint32(c.Prescaler&maxPrescaler)<<18
}

// UnpackClock decodes a clock register value.
func UnpackClock(v uint32) ClockConfig {
	if v&(1<<31) != 0 {
		return ClockConfig{Bypass: true}
	}
	return ClockConfig{
		HalfCycle: uint8(v & maxCounter),
		Counter:   uint8(v >> 12 & maxCounter),
		Prescaler: uint16(v >> 18 & maxPrescaler),
	}
}

// ComputeDivider searches for the encoding closest to targetHz on a bus
// running at busHz. Targets at or above the bus clock use the bypass
// encoding; targets below the slowest reachable frequency saturate to the
// slowest encoding. Otherwise counters are tried in increasing order with
// three prescaler candidates around the naive quotient each; the first
// exact match wins and only candidates at or below the target are kept,
// so the result never overshoots.
func ComputeDivider(busHz, targetHz uint32) ClockConfig {
	return computeDivider(busHz, targetHz, maxPrescaler)
}

// computeDivider is ComputeDivider with the prescaler ceiling as an
// argument; the S2/S3 generation narrows the field to 4 bits. See
// Layout.Divider.
func computeDivider(busHz, targetHz uint32, maxPre uint16) ClockConfig {
	if targetHz >= busHz {
		return ClockConfig{Bypass: true}
	}
	slowest := ClockConfig{Prescaler: maxPre, Counter: maxCounter}
	if targetHz < slowest.Frequency(busHz) {
		return slowest
	}

	var best ClockConfig
	var bestHz uint32
	for n := uint32(1); n <= maxCounter; n++ {
		naive := int32(busHz/(n+1)/targetHz) - 1
		for _, candidate := range [3]int32{naive - 1, naive, naive + 1} {
			if candidate < 0 {
				candidate = 0
			} else if candidate > int32(maxPre) {
				candidate = int32(maxPre)
			}
			c := ClockConfig{
				Prescaler: uint16(candidate),
				Counter:   uint8(n),
				HalfCycle: uint8((n + 1) / 2),
			}
			hz := c.Frequency(busHz)
			if hz == targetHz {
				return c
			}
			if hz < targetHz && targetHz-hz < targetHz-bestHz {
				best, bestHz = c, hz
			}
		}
	}
	return best
}
