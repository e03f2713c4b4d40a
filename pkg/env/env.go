// Package env holds the tiny lookup helper used before config is parsed,
// e.g. for the logger's output format.
package env

import "os"

// Get returns the value of the environment variable, or fallback when the
// variable is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
