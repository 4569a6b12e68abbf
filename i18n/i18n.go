// Package i18n translates slangref's own user-facing strings: code-action
// titles, editor messages and CLI output.
//
// Catalogs are gettext .po files embedded in the binary under
// locales/{lang}/LC_MESSAGES/slangref.po and loaded by Init. Untranslated
// strings pass through unchanged.
//
//	i18n.Init("")  // detect from LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	title := fmt.Sprintf(i18n.T("Convert to translation: t.%s"), key)
package i18n

import (
	"embed"
	"os"
	"strings"
	"sync"

	"github.com/leonelquinteros/gotext"
)

//go:embed all:locales
var locales embed.FS

// domain is the gettext domain name.
const domain = "slangref"

var (
	mu sync.RWMutex
	po *gotext.Locale
)

// Init loads the catalog for lang. An empty lang is detected from the
// environment the way GNU gettext does it.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}

	l := gotext.NewLocaleFSWithPath(lang, locales, "locales")
	l.AddDomain(domain)
	l.SetDomain(domain)

	mu.Lock()
	po = l
	mu.Unlock()
}

// Language returns the language Init would pick from the environment.
func Language() string {
	return detectLanguage()
}

// T translates msgid.
func T(msgid string) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		return msgid
	}
	return l.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	mu.RLock()
	l := po
	mu.RUnlock()
	if l == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return l.GetN(singular, plural, n)
}

// detectLanguage follows GNU gettext priority: LANGUAGE, LC_ALL,
// LC_MESSAGES, LANG.
func detectLanguage() string {
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			// LANGUAGE can be a colon-separated list
			if env == "LANGUAGE" {
				parts := strings.SplitN(val, ":", 2)
				val = parts[0]
			}
			// ru_RU.UTF-8 -> ru_RU
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
