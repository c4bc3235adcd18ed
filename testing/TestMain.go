package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// testDefaults fill environment variables a test binary did not set.
var testDefaults = map[string]string{
	"ARCHIVE_LOCALE": "fi",
}

var once sync.Once

func applyTestEnv() {
	once.Do(func() {
		_ = os.Setenv("ARCHIVE_TEST_MODE", "1")
		for key, value := range testDefaults {
			if _, set := os.LookupEnv(key); !set {
				_ = os.Setenv(key, value)
			}
		}
	})
}

func init() {
	applyTestEnv()
}

// TestMain runs the tests of packages that delegate to it.
func TestMain(m *stdtesting.M) {
	applyTestEnv()
	os.Exit(m.Run())
}
