package logger

import "strings"

// RedactEmail masks a recipient address for safe logging. Membership and
// import paths log addresses constantly, so the mask keeps just enough to
// correlate log lines without exposing the address itself.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}
