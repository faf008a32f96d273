// Package email builds mailto: deep links for admin replies. Nothing here sends mail.
package email

import (
	"net/url"
	"strings"
	"unicode"
)

// ComposeLink builds a mailto: URI with a percent-encoded subject and body.
// Spaces encode as %20 because mail clients do not decode '+'.
func ComposeLink(to, subject, body string) string {
	var params []string
	if subject != "" {
		params = append(params, "subject="+escape(subject))
	}
	if body != "" {
		params = append(params, "body="+escape(body))
	}

	link := "mailto:" + url.PathEscape(strings.TrimSpace(to))
	if len(params) > 0 {
		link += "?" + strings.Join(params, "&")
	}
	return link
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Greeting returns "Hi <first name>," for a reply body.
func Greeting(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return "Hi there,"
	}
	return "Hi " + fields[0] + ","
}

// Quote prefixes every line of text with "> ".
func Quote(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

// DeriveNameFromEmail guesses a first and last name from the local part of an address.
func DeriveNameFromEmail(email string) (string, string) {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	if len(parts) == 0 {
		return "Admin", ""
	}

	first := capitalize(parts[0])
	last := ""
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}

	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
