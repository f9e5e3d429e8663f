package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "HRDASH_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether binaries should exit before dialing Postgres,
// Redis or the aggregate endpoint.
func InTestMode() bool {
	if on := testMode.Load(); on != nil {
		return *on
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads HRDASH_TEST_MODE. Any value strconv.ParseBool
// accepts as true enables test mode.
func RefreshTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(&on)
	return on
}
