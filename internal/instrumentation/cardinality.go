package instrumentation

import "strings"

// ExtractUserDomain extracts the domain part from a username that is an
// email address. Usernames returned by Microsoft sign-in are usually UPNs
// ("alice@contoso.com"), so the domain is a low-cardinality stand-in for
// the user.
//
// Example:
//
//	ExtractUserDomain("alice@contoso.com")  // "contoso.com"
//	ExtractUserDomain("alice")              // "unknown"
//	ExtractUserDomain("")                   // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}
