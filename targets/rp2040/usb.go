//go:build rp2040

package main

import (
	"machine"
	"time"

	"keycalc/core"
)

// InitUSB initializes USB serial communication
func InitUSB() {
	// On RP2040, machine.Serial is USB CDC, not UART; baud is ignored.
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBWriteBytes writes all of data, retrying short writes a few times.
func USBWriteBytes(data []byte) (int, error) {
	written := 0
	for tries := 0; written < len(data) && tries < 10; tries++ {
		n, err := machine.Serial.Write(data[written:])
		if err != nil {
			return written, err
		}
		written += n
	}
	return written, nil
}

// usbReaderLoop moves received bytes into the console. It runs in its own
// goroutine; the console only decodes them on the main loop.
func usbReaderLoop(console *core.Console) {
	defer func() {
		if r := recover(); r != nil {
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop(console)
		}
	}()

	var buf [64]byte
	for {
		n := 0
		for n < len(buf) && machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			buf[n] = b
			n++
		}
		if n > 0 {
			console.Feed(buf[:n])
		}
		// Yield to avoid a busy loop
		time.Sleep(100 * time.Microsecond)
	}
}
