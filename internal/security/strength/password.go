package strength

import "strings"

// UserInfo is the personal data a password must not contain.
type UserInfo struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
}

func (u UserInfo) fragments() []string {
	local, _, _ := strings.Cut(u.Email, "@")
	return []string{local, u.Username, u.FirstName, u.LastName}
}

var passwordProfile = profile{
	subject:           "Password",
	minLength:         8,
	recommendedLength: 12,
	// bcrypt ignores input past 72 bytes and newer versions reject it.
	maxBytes:          72,
	lengthCap:         20,
	bonusAt:           [2]int{12, 16},
	tiers:             [3]int{8, 12, 16},
	runLength:         3,
	common: setOf(
		"password", "password1", "password123", "123456", "12345678", "123456789",
		"qwerty", "qwerty123", "abc123", "letmein", "welcome", "welcome1", "monkey",
		"dragon", "master", "sunshine", "princess", "football", "baseball", "iloveyou",
		"trustno1", "shadow", "superman", "admin", "admin123", "login", "passw0rd",
		"p@ssw0rd", "p@ssword", "changeme", "secret", "starwars", "whatever",
	),
	weakParts: []string{
		"password", "passw0rd", "p@ssw0rd", "qwerty", "letmein", "welcome",
		"admin", "iloveyou", "monkey", "dragon", "master", "login", "changeme",
	},
}

// Password checks a user password against the strength rules and the user's
// own details.
func Password(password string, info UserInfo) Result {
	return passwordProfile.assess(password, info.fragments())
}

func setOf(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
