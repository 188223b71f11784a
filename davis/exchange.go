package davis

import "context"

// exchange is the bounded single-producer/single-consumer queue of
// committed containers (C1). It is implemented with a buffered channel: Go
// channels already provide the happens-before guarantee the spec demands
// between a producer's writes to a container and the consumer observing the
// handle, without a hand-rolled ring buffer or atomics (see DESIGN.md).
type exchange struct {
	containers chan *Container
}

func newExchange(capacity int) *exchange {
	if capacity < 1 {
		capacity = 1
	}
	return &exchange{containers: make(chan *Container, capacity)}
}

// put is non-blocking; it returns false if the buffer is full.
func (e *exchange) put(c *Container) bool {
	select {
	case e.containers <- c:
		return true
	default:
		return false
	}
}

// get is non-blocking; it returns (nil, false) if the buffer is empty.
func (e *exchange) get() (*Container, bool) {
	select {
	case c := <-e.containers:
		return c, true
	default:
		return nil, false
	}
}

// getBlocking blocks until a container is available or ctx is done.
func (e *exchange) getBlocking(ctx context.Context) (*Container, error) {
	select {
	case c := <-e.containers:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drain removes and returns every container currently queued, in FIFO
// order, without blocking. Used by Stop to empty C1 before tearing down.
func (e *exchange) drain() []*Container {
	var out []*Container
	for {
		select {
		case c := <-e.containers:
			out = append(out, c)
		default:
			return out
		}
	}
}

// len reports the number of containers currently queued.
func (e *exchange) len() int {
	return len(e.containers)
}
