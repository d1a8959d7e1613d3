package logger

import "strings"

// RedactEmail keeps the first two characters of the local part and the
// domain: "john.doe@example.com" becomes "jo***@example.com". Local parts of
// two characters or fewer are masked entirely.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}

// RedactEmails redacts each address and joins them with commas.
func RedactEmails(emails []string) string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = RedactEmail(strings.TrimSpace(e))
	}
	return strings.Join(out, ",")
}
