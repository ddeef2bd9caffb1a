package testutil

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/Helcaraxan/aptgraph/internal/logger"
)

// TestLogger returns a logger builder with all domains at debug level. Its output is only shown
// when the test fails.
func TestLogger(t *testing.T) *logger.Builder {
	out := &syncBuffer{}
	t.Cleanup(func() {
		if t.Failed() {
			fmt.Fprint(os.Stderr, out.String())
		}
	})

	fmt.Fprintf(out, "--- Test %s ---\n", t.Name())
	b := logger.NewBuilder(out)
	b.SetDomainLevel("all", zapcore.DebugLevel)
	return b
}

type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sb.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sb.String()
}

func (s *syncBuffer) Sync() error { return nil }
