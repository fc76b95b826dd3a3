package completions

import "github.com/papercomputeco/lmstream/pkg/llm"

// item is a single stream value: a chunk or an error.
type item struct {
	chunk llm.Chunk
	err   error
}

// pipe returns the two ends of an unbounded FIFO. Sends on the input never
// wait for the consumer; values queue until read from the output. The output
// closes once the input is closed and the queue is drained.
//
// When detach closes, queued and future values are discarded. The producer
// is not stopped: its sends keep succeeding until it closes the input.
func pipe(detach <-chan struct{}) (chan<- item, <-chan item) {
	in := make(chan item)
	out := make(chan item)

	go func() {
		defer close(out)

		recv := in
		var queue []item
		for recv != nil || len(queue) > 0 {
			select {
			case <-detach:
				discard(recv)
				return
			default:
			}

			var send chan<- item
			var next item
			if len(queue) > 0 {
				send = out
				next = queue[0]
			}

			select {
			case it, ok := <-recv:
				if !ok {
					recv = nil
					continue
				}
				queue = append(queue, it)
			case send <- next:
				queue[0] = item{}
				queue = queue[1:]
			case <-detach:
				discard(recv)
				return
			}
		}
	}()

	return in, out
}

// discard drains in until the producer closes it.
func discard(in <-chan item) {
	if in == nil {
		return
	}
	for range in {
	}
}
