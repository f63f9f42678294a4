package indicator

import (
	"os"
	"strings"
)

type locale string

const (
	localeEnglish locale = "en"
	localeSpanish locale = "es"
)

type messages struct {
	listening   string
	micError    string
	celebration string
}

func localMessages() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "es") {
		return localeSpanish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeSpanish:
		return messages{
			listening:   "Escuchando… ¡sopla las velas!",
			micError:    "Micrófono no disponible",
			celebration: "🎉 ¡Velas apagadas!",
		}
	case localeEnglish:
		fallthrough
	default:
		return messages{
			listening:   "Listening… blow out the candles!",
			micError:    "Microphone unavailable",
			celebration: "🎉 All candles are out!",
		}
	}
}
