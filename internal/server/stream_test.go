package server

import (
	"bufio"
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("client gone") }

// fakeSource feeds fragments from in. Closing it ends next, the way a
// released feed or a cancelled watcher does.
type fakeSource struct {
	in     chan []byte
	closes atomic.Int32
	once   sync.Once
	ended  chan struct{}
}

func newFakeSource(frags ...string) *fakeSource {
	f := &fakeSource{in: make(chan []byte, len(frags)), ended: make(chan struct{})}
	for _, frag := range frags {
		f.in <- []byte(frag)
	}
	return f
}

func (f *fakeSource) source() eventSource {
	return eventSource{
		next: func() ([]byte, bool) {
			frag, ok := <-f.in
			if !ok {
				close(f.ended)
			}
			return frag, ok
		},
		close: func() {
			f.closes.Add(1)
			f.once.Do(func() { close(f.in) })
		},
	}
}

func runPump(t *testing.T, s *Server, w *bufio.Writer, src eventSource) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		s.pump(w, src, "/admin/stream")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}

func waitEnded(t *testing.T, f *fakeSource) {
	t.Helper()
	select {
	case <-f.ended:
	case <-time.After(2 * time.Second):
		t.Fatal("producer still running")
	}
}

func TestPump(t *testing.T) {
	newServer := func() *Server {
		return &Server{log: zap.NewNop(), done: make(chan struct{})}
	}

	t.Run("should release the source once when the client goes away", func(t *testing.T) {
		req := require.New(t)
		src := newFakeSource("<p>a</p>")

		runPump(t, newServer(), bufio.NewWriter(failingWriter{}), src.source())
		waitEnded(t, src)
		req.Equal(int32(1), src.closes.Load())
	})

	t.Run("should release the source once on shutdown", func(t *testing.T) {
		req := require.New(t)
		s := newServer()
		close(s.done)
		src := newFakeSource()

		runPump(t, s, bufio.NewWriter(&bytes.Buffer{}), src.source())
		waitEnded(t, src)
		req.Equal(int32(1), src.closes.Load())
	})

	t.Run("should stop when the source ends", func(t *testing.T) {
		req := require.New(t)
		src := newFakeSource("<p>a</p>")
		src.once.Do(func() { close(src.in) })

		var buf bytes.Buffer
		runPump(t, newServer(), bufio.NewWriter(&buf), src.source())
		waitEnded(t, src)
		req.Equal(int32(1), src.closes.Load())
		req.Equal("event: render\ndata: <p>a</p>\n\n", buf.String())
	})
}
