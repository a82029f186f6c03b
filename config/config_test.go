package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"timing": {"debounce_ms": 35}}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	def := DefaultConfig()
	if cfg.Timing.DebounceMs != 35 {
		t.Errorf("DebounceMs = %d, want 35", cfg.Timing.DebounceMs)
	}
	if cfg.Timing.ResultHoldMs != def.Timing.ResultHoldMs {
		t.Errorf("ResultHoldMs = %d, want default %d", cfg.Timing.ResultHoldMs, def.Timing.ResultHoldMs)
	}
	if cfg.LCD != def.LCD {
		t.Errorf("LCD = %+v, want default %+v", cfg.LCD, def.LCD)
	}
	if len(cfg.Keypad.Rows) != KeypadRows || cfg.Keypad.Cols[2] != def.Keypad.Cols[2] {
		t.Errorf("Keypad not defaulted: %+v", cfg.Keypad)
	}
	if cfg.Console.Baud != 115200 {
		t.Errorf("Console.Baud = %d", cfg.Console.Baud)
	}
}

func TestLoadConfigKeepsExplicitPins(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"lcd": {"data": {"port": 0, "shift": 10}, "rs": {"bit": 18}, "rw": {"bit": 19}, "en": {"bit": 20}}
	}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LCD.Data.Shift != 10 || cfg.LCD.EN.Bit != 20 {
		t.Errorf("Explicit LCD wiring lost: %+v", cfg.LCD)
	}
}

func TestLoadConfigRejectsBadKeypad(t *testing.T) {
	_, err := LoadConfig([]byte(`{"keypad": {"rows": [{"bit": 1}]}}`))
	if !errors.Is(err, ErrKeypadShape) {
		t.Errorf("Expected ErrKeypadShape, got %v", err)
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{`)); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestMs(t *testing.T) {
	if Ms(2000) != 2*time.Second {
		t.Errorf("Ms(2000) = %v", Ms(2000))
	}
}

func TestValidateRejectsMissingPort(t *testing.T) {
	_, err := LoadConfig([]byte(`{"lcd": {"data": {"port": 1}, "rs": {"port": 9, "bit": 1}, "en": {"bit": 2}}}`))
	if !errors.Is(err, ErrPinRange) {
		t.Errorf("Expected ErrPinRange, got %v", err)
	}

	_, err = LoadConfig([]byte(`{"lcd": {"data": {"shift": 30}, "rs": {"bit": 1}, "en": {"bit": 2}}}`))
	if !errors.Is(err, ErrPinRange) {
		t.Errorf("Expected ErrPinRange for bus shift, got %v", err)
	}
}

func TestValidateRejectsSharedPins(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"row on data bus", `{"keypad": {"rows": [{"port": 1, "bit": 3}, {"bit": 3}, {"bit": 4}, {"bit": 5}]}}`},
		{"column on enable", `{"keypad": {"cols": [{"port": 4, "bit": 2}, {"bit": 7}, {"port": 2, "bit": 6}, {"port": 2, "bit": 7}]}}`},
		{"rs on rw", `{"lcd": {"data": {"port": 1}, "rs": {"port": 4, "bit": 3}, "rw": {"port": 4, "bit": 3}, "en": {"port": 4, "bit": 2}}}`},
		{"control on top bus bit", `{"lcd": {"data": {"port": 1, "shift": 8}, "rs": {"port": 1, "bit": 15}, "rw": {"port": 4, "bit": 3}, "en": {"port": 4, "bit": 2}}}`},
		{"row twice", `{"keypad": {"rows": [{"bit": 2}, {"bit": 2}, {"bit": 4}, {"bit": 5}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.json))
			if !errors.Is(err, ErrPinConflict) {
				t.Errorf("Expected ErrPinConflict, got %v", err)
			}
		})
	}
}

func TestDefaultConfigHasNoConflicts(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoadConfigKeepsExplicitZeroTiming(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"timing": {"idle_ms": 0, "debounce_ms": 0}}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timing.IdleMs != 0 || cfg.Timing.DebounceMs != 0 {
		t.Errorf("explicit zero replaced: idle=%d debounce=%d", cfg.Timing.IdleMs, cfg.Timing.DebounceMs)
	}
	if cfg.Timing.ScanSettleMs != DefaultConfig().Timing.ScanSettleMs {
		t.Errorf("ScanSettleMs = %d, want default", cfg.Timing.ScanSettleMs)
	}
}
