package config

import (
	"os"
	"strings"
)

// ResolveEnvVar resolves a config value of the form "os.environ/VAR_NAME"
// against the process environment. Plain values pass through unchanged; an
// unset variable resolves to the empty string.
func ResolveEnvVar(value string) string {
	if envKey, ok := strings.CutPrefix(value, "os.environ/"); ok {
		if v, found := os.LookupEnv(envKey); found {
			return v
		}
		return ""
	}
	return value
}
