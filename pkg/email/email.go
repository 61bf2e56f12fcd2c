package email

import (
	"strings"
	"unicode"
)

// DefaultGreeting opens a message when neither a name nor a usable address
// local part is available.
const DefaultGreeting = "Student"

// Normalize trims and lowercases an address.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// GreetingName returns name when set, otherwise the first token of the
// address local part, capitalised ("jane.doe@x" -> "Jane").
func GreetingName(name, address string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}
	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return DefaultGreeting
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
