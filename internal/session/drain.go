package session

import (
	"io"
	"time"
)

// pump continuously reads a session handle into a buffered channel so that
// drains can be timeout-bounded regardless of whether the underlying handle
// supports read deadlines. Exactly one pump runs per open handle; it exits
// when the handle is closed.
type pump struct {
	chunks chan []byte
	stop   chan struct{}
	done   chan struct{}
}

// startPump begins reading r in the background. The reader goroutine exits
// on the first read error after the handle is closed, or when close()
// abandons it mid-send.
func startPump(r io.Reader) *pump {
	p := &pump{
		chunks: make(chan []byte, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				// A full channel blocks the pump until the next drain;
				// output ordering matters more than pump liveness here.
				// Stop unblocks it through the stop channel.
				select {
				case p.chunks <- data:
				case <-p.stop:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return p
}

// close releases the reader goroutine. Callers close the underlying handle
// first so a pending Read returns; a pump blocked on a full chunk channel is
// abandoned here. Buffered chunks are discarded with the session.
func (p *pump) close() {
	close(p.stop)
}

// drain collects whatever the pump has produced, waiting up to timeout for
// the first chunk and then up to quiet between subsequent chunks. It returns
// whatever was collected; an empty result after a full timeout is not an
// error. The total size is capped at limit bytes.
func (p *pump) drain(timeout, quiet time.Duration, limit int) []byte {
	var out []byte
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	wait := deadline.C
	var gap *time.Timer
	defer func() {
		if gap != nil {
			gap.Stop()
		}
	}()

	for {
		select {
		case data := <-p.chunks:
			out = append(out, data...)
			if len(out) >= limit {
				return out[:limit]
			}
			// After the first data, only a quiet-window gap or the
			// overall deadline ends the drain.
			if gap == nil {
				gap = time.NewTimer(quiet)
			} else {
				gap.Reset(quiet)
			}
			wait = gap.C
		case <-wait:
			return out
		case <-deadline.C:
			return out
		case <-p.done:
			// Handle closed; return anything already buffered.
			for {
				select {
				case data := <-p.chunks:
					out = append(out, data...)
					if len(out) >= limit {
						return out[:limit]
					}
				default:
					return out
				}
			}
		}
	}
}
