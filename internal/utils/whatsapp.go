package utils

import (
	"net/url"
	"strings"
)

// WhatsAppLink builds a click-to-chat URL: base followed by the digits of
// number and, when text is set, a prefilled message.
func WhatsAppLink(base, number, text string) string {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	link := base + digits.String()
	if text != "" {
		link += "?text=" + url.QueryEscape(text)
	}
	return link
}
