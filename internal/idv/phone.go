package idv

import (
	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone parses a raw phone number and formats it as E.164.
// Numbers that cannot be parsed normalize to the empty string.
func NormalizePhone(raw, defaultRegion string) string {
	if raw == "" {
		return ""
	}
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// PhonesMatch reports whether two raw phone numbers normalize to the same
// non-empty E.164 value. An empty or unparseable side never matches.
func PhonesMatch(a, b, defaultRegion string) bool {
	na := NormalizePhone(a, defaultRegion)
	nb := NormalizePhone(b, defaultRegion)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
