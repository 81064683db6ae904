// Package translate formats user-facing messages for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

const fallbackLocale = "en-US"

var printer = newPrinter()

func newPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.WithError(err).Warn("mipsim: cannot detect host locale")
	}

	if len(locales) == 0 {
		locales = []string{fallbackLocale}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats an en-US Sprintf-style key in the host locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
