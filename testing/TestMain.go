package testing

import (
	"os"
	"sync"
	stdtesting "testing"

	"github.com/openfolio/ledgerd/internal/app"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("LEDGERD_TEST_MODE", "1")
		// app caches the flag on first read; force a re-read in case
		// something consulted it before this init ran.
		app.RefreshTestMode()
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
