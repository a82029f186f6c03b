// Package config describes how the calculator is wired and timed.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Port numbers used by the reference board. Targets with a single GPIO bank
// use PortA for everything.
const (
	PortA uint8 = iota
	PortB
	PortC
	PortD
	PortE
	PortF
)

const (
	KeypadRows = 4
	KeypadCols = 4
)

var (
	ErrKeypadShape = errors.New("keypad needs exactly 4 rows and 4 columns")
	ErrPinRange    = errors.New("pin out of range")
	ErrPinConflict = errors.New("pin assigned twice")
)

// PinConfig names one GPIO line.
type PinConfig struct {
	Port uint8 `json:"port"`
	Bit  uint8 `json:"bit"`
}

// BusConfig names eight consecutive lines of one port, lowest bit first.
type BusConfig struct {
	Port  uint8 `json:"port"`
	Shift uint8 `json:"shift"`
}

type KeypadConfig struct {
	Rows []PinConfig `json:"rows"`
	Cols []PinConfig `json:"cols"`
}

type LCDConfig struct {
	Data BusConfig `json:"data"`
	RS   PinConfig `json:"rs"`
	RW   PinConfig `json:"rw"`
	EN   PinConfig `json:"en"`
}

// TimingConfig holds every blocking delay in milliseconds. LoadConfig
// defaults a key only when the file omits it, so 0 is a valid setting.
type TimingConfig struct {
	PowerUpMs     uint32 `json:"power_up_ms"`
	LCDSettleMs   uint32 `json:"lcd_settle_ms"`
	LCDClearMs    uint32 `json:"lcd_clear_ms"`
	LCDInitStepMs uint32 `json:"lcd_init_step_ms"`
	ScanSettleMs  uint32 `json:"scan_settle_ms"`
	DebounceMs    uint32 `json:"debounce_ms"`
	ResultHoldMs  uint32 `json:"result_hold_ms"`
	IdleMs        uint32 `json:"idle_ms"`
}

// ConsoleConfig controls the serial link to a host monitor.
type ConsoleConfig struct {
	Enabled bool `json:"enabled"`
	Baud    int  `json:"baud"`
}

type Config struct {
	Keypad  KeypadConfig  `json:"keypad"`
	LCD     LCDConfig     `json:"lcd"`
	Timing  TimingConfig  `json:"timing"`
	Console ConsoleConfig `json:"console"`
}

// Ms converts a millisecond setting to a duration.
func Ms(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// LoadConfig parses JSON and fills unset values from DefaultConfig.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var present struct {
		Timing timingSet `json:"timing"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg, &present.Timing)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keypad wiring has the fixed 4x4 shape, every pin
// exists and no line is used twice. The LCD data bus occupies Shift to
// Shift+7 of its port.
func (c *Config) Validate() error {
	if len(c.Keypad.Rows) != KeypadRows || len(c.Keypad.Cols) != KeypadCols {
		return fmt.Errorf("%w: got %d rows, %d columns", ErrKeypadShape, len(c.Keypad.Rows), len(c.Keypad.Cols))
	}

	type namedPin struct {
		name string
		pin  PinConfig
	}
	var pins []namedPin
	for i, p := range c.Keypad.Rows {
		pins = append(pins, namedPin{"keypad.rows[" + strconv.Itoa(i) + "]", p})
	}
	for i, p := range c.Keypad.Cols {
		pins = append(pins, namedPin{"keypad.cols[" + strconv.Itoa(i) + "]", p})
	}
	pins = append(pins,
		namedPin{"lcd.rs", c.LCD.RS},
		namedPin{"lcd.rw", c.LCD.RW},
		namedPin{"lcd.en", c.LCD.EN},
	)

	for _, np := range pins {
		if p := np.pin; p.Port > PortF || p.Bit > 31 {
			return fmt.Errorf("%w: %s is port %d bit %d", ErrPinRange, np.name, p.Port, p.Bit)
		}
	}
	d := c.LCD.Data
	if d.Port > PortF || d.Shift > 24 {
		return fmt.Errorf("%w: lcd.data is port %d shift %d", ErrPinRange, d.Port, d.Shift)
	}

	used := make(map[PinConfig]string, len(pins)+8)
	for i := uint8(0); i < 8; i++ {
		used[PinConfig{Port: d.Port, Bit: d.Shift + i}] = "lcd.data[" + strconv.Itoa(int(i)) + "]"
	}
	for _, np := range pins {
		if other, ok := used[np.pin]; ok {
			return fmt.Errorf("%w: %s and %s are both port %d bit %d",
				ErrPinConflict, np.name, other, np.pin.Port, np.pin.Bit)
		}
		used[np.pin] = np.name
	}
	return nil
}

// timingSet records which timing keys a config file named, so an explicit
// zero is kept rather than defaulted.
type timingSet struct {
	PowerUpMs     *uint32 `json:"power_up_ms"`
	LCDSettleMs   *uint32 `json:"lcd_settle_ms"`
	LCDClearMs    *uint32 `json:"lcd_clear_ms"`
	LCDInitStepMs *uint32 `json:"lcd_init_step_ms"`
	ScanSettleMs  *uint32 `json:"scan_settle_ms"`
	DebounceMs    *uint32 `json:"debounce_ms"`
	ResultHoldMs  *uint32 `json:"result_hold_ms"`
	IdleMs        *uint32 `json:"idle_ms"`
}

// applyDefaults fills what the file left out. A pin at port 0 bit 0 is
// legal, so pin groups are only defaulted as a whole when left out
// entirely. Timings default per key, and only when the key is absent.
func applyDefaults(cfg *Config, set *timingSet) {
	def := DefaultConfig()

	if len(cfg.Keypad.Rows) == 0 {
		cfg.Keypad.Rows = def.Keypad.Rows
	}
	if len(cfg.Keypad.Cols) == 0 {
		cfg.Keypad.Cols = def.Keypad.Cols
	}
	if cfg.LCD == (LCDConfig{}) {
		cfg.LCD = def.LCD
	}

	t := &cfg.Timing
	defaultMs(&t.PowerUpMs, set.PowerUpMs, def.Timing.PowerUpMs)
	defaultMs(&t.LCDSettleMs, set.LCDSettleMs, def.Timing.LCDSettleMs)
	defaultMs(&t.LCDClearMs, set.LCDClearMs, def.Timing.LCDClearMs)
	defaultMs(&t.LCDInitStepMs, set.LCDInitStepMs, def.Timing.LCDInitStepMs)
	defaultMs(&t.ScanSettleMs, set.ScanSettleMs, def.Timing.ScanSettleMs)
	defaultMs(&t.DebounceMs, set.DebounceMs, def.Timing.DebounceMs)
	defaultMs(&t.ResultHoldMs, set.ResultHoldMs, def.Timing.ResultHoldMs)
	defaultMs(&t.IdleMs, set.IdleMs, def.Timing.IdleMs)

	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = def.Console.Baud
	}
}

func defaultMs(v *uint32, given *uint32, def uint32) {
	if given == nil {
		*v = def
	}
}

// DefaultConfig returns the reference wiring: keypad rows on PA2-PA5,
// columns on PA6, PA7, PC6, PC7, LCD data on PB0-PB7 and control on PE1
// (RS), PE3 (RW), PE2 (EN).
func DefaultConfig() *Config {
	return &Config{
		Keypad: KeypadConfig{
			Rows: []PinConfig{
				{Port: PortA, Bit: 2},
				{Port: PortA, Bit: 3},
				{Port: PortA, Bit: 4},
				{Port: PortA, Bit: 5},
			},
			Cols: []PinConfig{
				{Port: PortA, Bit: 6},
				{Port: PortA, Bit: 7},
				{Port: PortC, Bit: 6},
				{Port: PortC, Bit: 7},
			},
		},
		LCD: LCDConfig{
			Data: BusConfig{Port: PortB, Shift: 0},
			RS:   PinConfig{Port: PortE, Bit: 1},
			RW:   PinConfig{Port: PortE, Bit: 3},
			EN:   PinConfig{Port: PortE, Bit: 2},
		},
		Timing: TimingConfig{
			PowerUpMs:     40,
			LCDSettleMs:   10,
			LCDClearMs:    10,
			LCDInitStepMs: 20,
			ScanSettleMs:  10,
			DebounceMs:    20,
			ResultHoldMs:  2000,
			IdleMs:        100,
		},
		Console: ConsoleConfig{
			Enabled: false,
			Baud:    115200,
		},
	}
}
