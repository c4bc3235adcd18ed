package app

import (
	"os"
	"sync"
	"sync/atomic"
)

const testModeEnv = "ARCHIVE_TEST_MODE"

// envFlag is a boolean environment switch read lazily and cached.
type envFlag struct {
	name string
	once sync.Once
	on   atomic.Bool
}

func (f *envFlag) load() {
	f.on.Store(os.Getenv(f.name) == "1")
}

func (f *envFlag) enabled() bool {
	f.once.Do(f.load)
	return f.on.Load()
}

var testMode = &envFlag{name: testModeEnv}

// InTestMode reports whether binaries should skip connecting to Postgres,
// Redis and the queue.
func InTestMode() bool {
	return testMode.enabled()
}

// RefreshTestMode rereads ARCHIVE_TEST_MODE after the environment changed.
func RefreshTestMode() {
	testMode.load()
}
