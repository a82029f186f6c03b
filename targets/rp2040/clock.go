//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HardwareClock is core.Clock on the RP2040's 1 MHz timer. Sleep suspends
// on the runtime timer, which never returns early.
type HardwareClock struct {
	start uint64
}

func NewHardwareClock() *HardwareClock {
	return &HardwareClock{start: GetHardwareUptime()}
}

func (c *HardwareClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (c *HardwareClock) Now() time.Duration {
	return time.Duration(GetHardwareUptime()-c.start) * time.Microsecond
}

// GetHardwareUptime reads the full 64-bit RP2040 hardware timer
func GetHardwareUptime() uint64 {
	// Must read high first, then low, then high again to detect rollover
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
