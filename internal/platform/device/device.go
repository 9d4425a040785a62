// Package device summarizes client User-Agent strings for audit details.
// The trail stores the summary, never the raw header.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownClient = "Unknown Device"

// ClientSummary renders a User-Agent as "Browser on OS", e.g. "Chrome on
// macOS" or "Safari on iPhone". Bots keep their crawler name.
func ClientSummary(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return unknownClient
	}

	ua := useragent.New(rawUA)
	if ua.Bot() {
		if name, _ := ua.Browser(); name != "" {
			return name + " (bot)"
		}
		return "Bot"
	}

	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	where := ua.OS()
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			where = platform
		}
	}
	if where == "" {
		where = "Unknown OS"
	}

	return browser + " on " + where
}
