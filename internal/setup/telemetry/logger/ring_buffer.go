package logger

// RingBuffer keeps the most recent log lines in insertion order.
type RingBuffer struct {
	lines     []string
	capacity  int
	head      int // Next write position
	size      int // Lines currently held
	totalSeen int // Lines added since the last rotation
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
// Capacities below one are raised to one.
func NewRingBuffer(capacity int) *RingBuffer {
	capacity = max(capacity, 1)
	return &RingBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Len returns the number of lines currently held.
func (rb *RingBuffer) Len() int {
	return rb.size
}

func (rb *RingBuffer) add(line string) {
	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % rb.capacity
	rb.size = min(rb.size+1, rb.capacity)
	rb.totalSeen++
}

// snapshot returns the held lines, oldest first.
func (rb *RingBuffer) snapshot() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.head - rb.size + rb.capacity) % rb.capacity
	for i := range rb.size {
		result[i] = rb.lines[(start+i)%rb.capacity]
	}
	return result
}
