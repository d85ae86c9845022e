// Package testing switches the process into test mode when imported, so
// configuration loading skips .env files and tokens never land in the
// user's config directory.
package testing

import (
	"os"
	"path/filepath"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SEALION_TEST_MODE", "1")
		if os.Getenv("SEALION_TOKEN_STORE") == "" {
			_ = os.Setenv("SEALION_TOKEN_STORE", "file")
		}
		if os.Getenv("SEALION_TOKEN_FILE") == "" {
			_ = os.Setenv("SEALION_TOKEN_FILE", filepath.Join(os.TempDir(), "sealion-test", "tokens.json"))
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain can be assigned by packages that want the flags set before any
// test runs without relying on import order.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
