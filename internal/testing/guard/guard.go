package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ARCHIVE_TEST_MODE") == "" {
			_ = os.Setenv("ARCHIVE_TEST_MODE", "1")
		}
	})
}
