// SPDX-License-Identifier: MIT

package nest

import (
	"io"
	"os"
	"sync"
	"testing"

	"github.com/ManuGH/nestsync/internal/log"
)

// swappableWriter lets individual tests capture the package's log output.
// With no destination set, output is discarded.
type swappableWriter struct {
	mu  sync.Mutex
	dst io.Writer
}

func (w *swappableWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dst == nil {
		return len(p), nil
	}
	return w.dst.Write(p)
}

func (w *swappableWriter) redirect(dst io.Writer) {
	w.mu.Lock()
	w.dst = dst
	w.mu.Unlock()
}

var logSink = &swappableWriter{}

func TestMain(m *testing.M) {
	log.Configure(log.Config{Level: "debug", Output: logSink})
	os.Exit(m.Run())
}
