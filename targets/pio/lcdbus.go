//go:build rp2040

package pio

// LCD data bus driven by a PIO state machine. Each FIFO word puts its low
// byte on eight consecutive pins; the bus value then holds until the next
// word, so the CPU only handles RS and EN.

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildBusProgram creates the bus PIO program using AssemblerV0
func buildBusProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestPins, 8).Encode(), // 1: out pins, 8
		// .wrap
	}
}

const busPIOOrigin = -1 // any free offset; the program has no jumps

// LCDBus writes bytes to an 8-bit parallel bus through PIO.
type LCDBus struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	base   machine.Pin
	offset uint8
}

// NewLCDBus selects PIO block pioNum (0 or 1) and state machine smNum.
func NewLCDBus(pioNum, smNum uint8) *LCDBus {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &LCDBus{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init claims the state machine and hands pins base..base+7 to it.
func (b *LCDBus) Init(base machine.Pin) error {
	b.base = base
	b.sm.TryClaim()

	program := buildBusProgram()
	offset, err := b.pio.AddProgram(program, busPIOOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	for i := machine.Pin(0); i < 8; i++ {
		(base + i).Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(base, 8)
	// Shift right so the low byte of each word lands on the pins.
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(base, 8, true)
	b.sm.SetPinsConsecutive(base, 8, false)
	b.sm.SetEnabled(true)
	return nil
}

// Write queues one byte for the bus.
func (b *LCDBus) Write(v byte) {
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(uint32(v))
}

// Drain waits until the state machine has taken every queued byte.
func (b *LCDBus) Drain() {
	for !b.sm.IsTxFIFOEmpty() {
	}
}
