package hal

// SpinMicros busy-waits us microseconds against a wrapping 32-bit
// microsecond clock. If the deadline wraps past the clock's maximum the
// loop first spins until the clock itself wraps, then until the deadline;
// without the first spin the second condition would be satisfied
// immediately. Achievable precision is platform dependent, typically in
// the low hundreds of nanoseconds on a memory-mapped timer.
func SpinMicros(micros func() uint32, us uint32) {
	if us == 0 {
		return
	}
	start := micros()
	deadline := start + us
	if deadline < start { // deadline wrapped
		for micros() >= start {
		}
	}
	for micros() < deadline {
	}
}
