package mqtt

// ringBuffer is a fixed-capacity FIFO of messages held while disconnected.
// When full, the oldest message is overwritten. Not safe for concurrent use.
type ringBuffer struct {
	slots   []Message
	next    int // write position
	size    int
	dropped int // overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{slots: make([]Message, capacity)}
}

// push stores msg and reports whether an older message was overwritten.
func (r *ringBuffer) push(msg Message) bool {
	full := r.size == len(r.slots)
	r.slots[r.next] = msg
	r.next = (r.next + 1) % len(r.slots)
	if full {
		r.dropped++
		return true
	}
	r.size++
	return false
}

// drain returns the held messages oldest first and empties the buffer.
func (r *ringBuffer) drain() (msgs []Message, dropped int) {
	if r.size == 0 {
		return nil, 0
	}
	msgs = make([]Message, r.size)
	start := (r.next - r.size + len(r.slots)) % len(r.slots)
	for i := range msgs {
		msgs[i] = r.slots[(start+i)%len(r.slots)]
	}
	dropped = r.dropped
	r.next, r.size, r.dropped = 0, 0, 0
	return msgs, dropped
}

func (r *ringBuffer) len() int {
	return r.size
}
