package hal

import "testing"

// fakeClock ticks one microsecond per read.
type fakeClock struct {
	now uint32
}

func (c *fakeClock) micros() uint32 {
	v := c.now
	c.now++
	return v
}

func TestSpinMicros(t *testing.T) {
	c := &fakeClock{now: 100}
	SpinMicros(c.micros, 50)
	if c.now < 150 {
		t.Errorf("returned early, clock at %d", c.now)
	}
	if c.now > 152 {
		t.Errorf("overshot, clock at %d", c.now)
	}
}

func TestSpinMicrosZero(t *testing.T) {
	c := &fakeClock{now: 7}
	SpinMicros(c.micros, 0)
	if c.now != 7 {
		t.Error("zero wait read the clock")
	}
}

func TestSpinMicrosWrap(t *testing.T) {
	// Deadline wraps past the 32-bit boundary: the wait must survive the
	// rollover instead of returning immediately.
	c := &fakeClock{now: 0xFFFF_FFF0}
	SpinMicros(c.micros, 0x20)
	if c.now < 0x10 {
		t.Errorf("returned before wrapped deadline, clock at %#x", c.now)
	}
	if c.now > 0x14 {
		t.Errorf("overshot wrapped deadline, clock at %#x", c.now)
	}
}
