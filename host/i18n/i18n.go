package i18n

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys are the en-US format strings.
const (
	MsgConnected    = "connected to %s at %d baud"
	MsgKey          = "key %c (%s)"
	MsgState        = "state %s  A=%d  B=%d"
	MsgResult       = "%d × %d = %d"
	MsgVersion      = "firmware link version %s"
	MsgDebug        = "firmware: %s"
	MsgScreen       = "LCD |%s|"
	MsgInjected     = "sent %d keys"
	MsgQuitHint     = "keys 0-9 * # A-D, C resets, q quits"
	MsgSourceMatrix = "keypad"
	MsgSourceRemote = "remote"
)

// German is the one shipped translation.
var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgConnected:    "verbunden mit %s, %d Baud",
		MsgKey:          "Taste %c (%s)",
		MsgState:        "Zustand %s  A=%d  B=%d",
		MsgVersion:      "Firmware-Protokollversion %s",
		MsgDebug:        "Firmware: %s",
		MsgInjected:     "%d Tasten gesendet",
		MsgQuitHint:     "Tasten 0-9 * # A-D, C setzt zurück, q beendet",
		MsgSourceMatrix: "Tastenfeld",
		MsgSourceRemote: "entfernt",
	},
}

var printer *message.Printer

func init() {
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				log.Printf("keycalc: i18n: %v", err)
			}
		}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("keycalc: locale: %v", err)
	}
	printer = For(locales...)
}

// For returns a printer for the best match among locales, falling back to
// en-US.
func For(locales ...string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf() key in the user's language.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
