package render

import (
	"io"
	"sync"
)

// tailBuffer keeps the last max bytes written to it. Process stderr can be
// arbitrarily large; only the tail is worth attaching to a job record.
type tailBuffer struct {
	mu   sync.Mutex
	max  int
	data []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if len(b.data) > b.max {
		b.data = b.data[len(b.data)-b.max:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data)
}

type teeWriter struct {
	a, b io.Writer
}

// newTeeWriter duplicates writes, ignoring errors on the secondary writer.
func newTeeWriter(a, b io.Writer) io.Writer {
	return &teeWriter{a: a, b: b}
}

func (t *teeWriter) Write(p []byte) (int, error) {
	n, err := t.a.Write(p)
	t.b.Write(p)
	return n, err
}
