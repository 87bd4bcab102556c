package session

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDrainEmptyOnTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := startPump(r)
	start := time.Now()
	out := p.drain(50*time.Millisecond, 10*time.Millisecond, 1<<20)

	assert.Empty(t, out)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestDrainCollectsChunks(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := startPump(r)
	go func() {
		w.Write([]byte("hello "))
		w.Write([]byte("world"))
	}()

	out := p.drain(time.Second, 100*time.Millisecond, 1<<20)
	assert.Equal(t, "hello world", string(out))
}

func TestDrainQuietWindowEndsEarly(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	p := startPump(r)
	go func() {
		w.Write([]byte("fast"))
		// Far outside the quiet window; must not appear in this drain.
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("late"))
	}()

	start := time.Now()
	out := p.drain(5*time.Second, 50*time.Millisecond, 1<<20)

	assert.Equal(t, "fast", string(out))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDrainRespectsBufferLimit(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	go func() {
		w.Write(make([]byte, 2048))
	}()

	p := startPump(r)
	out := p.drain(time.Second, 50*time.Millisecond, 1024)
	assert.Len(t, out, 1024)
}

// endlessReader always fills the buffer, like a handle that never goes quiet.
type endlessReader struct{}

func (endlessReader) Read(b []byte) (int, error) {
	for i := range b {
		b[i] = 'z'
	}
	return len(b), nil
}

func TestPumpCloseUnblocksFullChannel(t *testing.T) {
	p := startPump(endlessReader{})

	// Let the reader fill the chunk channel and block on the next send.
	time.Sleep(50 * time.Millisecond)

	p.close()
	select {
	case <-p.done:
	case <-time.After(time.Second):
		t.Fatal("reader goroutine still running after close")
	}
}

func TestDrainFlushesOnClose(t *testing.T) {
	r, w := io.Pipe()

	p := startPump(r)
	w.Write([]byte("tail"))
	w.Close()

	// Give the pump a beat to observe EOF.
	time.Sleep(20 * time.Millisecond)

	out := p.drain(time.Second, 50*time.Millisecond, 1<<20)
	assert.Equal(t, "tail", string(out))
}
