package server

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const heartbeatInterval = 15 * time.Second

// eventSource describes one server-sent event stream. next blocks until
// the next fragment is ready, or returns ok=false when the stream ends.
type eventSource struct {
	next  func() (fragment []byte, ok bool)
	beat  func()
	close func()
}

// streamEvents serves src as text/event-stream until the client goes
// away, the source ends or the server shuts down.
func (s *Server) streamEvents(c *fiber.Ctx, src eventSource) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	path := strings.Clone(c.Path())
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		s.pump(w, src, path)
	}))
	return nil
}

// pump writes src's fragments to w until a flush fails, the source ends or
// the server shuts down. src.close runs exactly once on the way out.
func (s *Server) pump(w *bufio.Writer, src eventSource, path string) {
	stop := make(chan struct{})
	defer src.close()
	defer close(stop)

	frags := make(chan []byte)
	go func() {
		defer close(frags)
		for {
			frag, ok := src.next()
			if !ok {
				return
			}
			select {
			case frags <- frag:
			case <-stop:
				return
			}
		}
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-s.done:
			return
		case frag, ok := <-frags:
			if !ok {
				return
			}
			writeEvent(w, "render", frag)
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			if src.beat != nil {
				src.beat()
			}
		}
		if err := w.Flush(); err != nil {
			s.log.Debug("event stream closed", zap.String("path", path), zap.Error(err))
			return
		}
	}
}

// writeEvent frames data as one event; each line gets its own data field.
func writeEvent(w *bufio.Writer, event string, data []byte) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		w.WriteString("data: ")
		w.Write(line)
		w.WriteByte('\n')
	}
	w.WriteByte('\n')
}
