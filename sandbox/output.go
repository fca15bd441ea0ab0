package sandbox

import (
	"bytes"
	"strings"
	"sync"
)

// boundedBuffer keeps at most limit bytes. The first write past the limit
// calls onExceed once; everything after that, and anything written after
// Close, is discarded so the writer never blocks the guest on a full pipe.
type boundedBuffer struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	limit    int
	exceeded bool
	closed   bool
	onExceed func()
}

func newBoundedBuffer(limit int, onExceed func()) *boundedBuffer {
	return &boundedBuffer{limit: limit, onExceed: onExceed}
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.exceeded || b.closed {
		return len(p), nil
	}
	if b.limit > 0 && b.buf.Len()+len(p) > b.limit {
		b.buf.Write(p[:b.limit-b.buf.Len()])
		b.exceeded = true
		if b.onExceed != nil {
			b.onExceed()
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

// Close stops accepting writes.
func (b *boundedBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// splitLines splits captured text into lines, dropping the empty element a
// trailing newline would leave behind.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
