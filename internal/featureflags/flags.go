package featureflags

import (
	"os"
	"strings"
)

const (
	// Events mounts the websocket event stream.
	Events = "events"
	// PublicAPI mounts the unauthenticated read API.
	PublicAPI = "public_api"
)

// Enabled reports whether a flag is on, falling back to def when FLAG_<NAME> is
// unset or unrecognised. Accepts 1/true/yes/on and 0/false/no/off, any case.
func Enabled(name string, def bool) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
