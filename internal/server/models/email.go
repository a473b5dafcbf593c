package models

import "strings"

// NormalizeEmail trims surrounding space and lowercases the domain part.
// The local part is kept as typed. Lookups compare the normalized form, so
// "Bob@Example.COM" and "Bob@example.com" are the same account while
// "bob@example.com" is a different one.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
