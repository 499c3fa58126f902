package booking

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale selects the language of customer-facing copy.
type Locale string

const (
	LocaleEN Locale = "en"
	LocaleSL Locale = "sl"
)

var (
	supportedLocales = []Locale{LocaleEN, LocaleSL}
	localeMatcher    = language.NewMatcher([]language.Tag{language.English, language.Slovenian})
)

// MatchLocale picks the best supported locale for the given preferences,
// each either a tag ("sl") or an Accept-Language value ("sl-SI,en;q=0.8").
// The first preference that matches wins; English is the fallback.
func MatchLocale(prefs ...string) Locale {
	for _, p := range prefs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(p)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := localeMatcher.Match(tags...)
		if conf != language.No {
			return supportedLocales[idx]
		}
	}
	return LocaleEN
}
