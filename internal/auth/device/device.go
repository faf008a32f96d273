// Package device turns a User-Agent header into a label shown on the
// current-session endpoint.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknown = "Unknown Device"

// Label returns "<browser> on <os>", or "Unknown Device" for an empty header.
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknown
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := ua.OSInfo().Name
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
