// Package guard prepares the process environment for test binaries. Import it
// for side effects only.
package guard

import "os"

// Defaults applied when the variable is unset.
var defaults = map[string]string{
	"HRDASH_TEST_MODE": "1",
	"JWT_SECRET":       "test-secret",
	"LOG_FORMAT":       "json",
}

func init() {
	for key, value := range defaults {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
