package blacklist

import (
	"regexp"
	"strings"
)

var (
	phoneStripper = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	phonePattern  = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
)

// NormalizePhone strips formatting characters, rewrites a leading 00 to +
// and checks the result is 8 to 15 digits. ok is false for anything else.
func NormalizePhone(raw string) (normalized string, ok bool) {
	phone := phoneStripper.Replace(strings.TrimSpace(raw))
	if strings.HasPrefix(phone, "00") {
		phone = "+" + phone[2:]
	}
	if !phonePattern.MatchString(phone) {
		return "", false
	}
	return phone, true
}
