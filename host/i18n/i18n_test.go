package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForFallsBackToEnglish(t *testing.T) {
	p := For()
	assert.Equal(t, "key 5 (keypad)", p.Sprintf(MsgKey, '5', p.Sprintf(MsgSourceMatrix)))
}

func TestForGerman(t *testing.T) {
	p := For("de-DE")
	assert.Equal(t, "Taste 5 (Tastenfeld)", p.Sprintf(MsgKey, '5', p.Sprintf(MsgSourceMatrix)))
	assert.Equal(t, "3 Tasten gesendet", p.Sprintf(MsgInjected, 3))
}

func TestUntranslatedKeyUsesFormat(t *testing.T) {
	p := For("de-DE")
	assert.Equal(t, "LCD |36|", p.Sprintf(MsgScreen, "36"))
}
