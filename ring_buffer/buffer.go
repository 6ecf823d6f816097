package ring_buffer

// RingBuffer keeps the most recent samples written to it, up to its size.
type RingBuffer struct {
	buffer []int16
	head   int
	filled int
}

func New(size int) *RingBuffer {
	if size < 0 {
		size = 0
	}

	return &RingBuffer{
		buffer: make([]int16, size),
	}
}

func (r *RingBuffer) Add(samples []int16) {
	if len(r.buffer) == 0 {
		return
	}

	// only the tail can survive
	if len(samples) > len(r.buffer) {
		samples = samples[len(samples)-len(r.buffer):]
	}

	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
	}

	r.filled += len(samples)
	if r.filled > len(r.buffer) {
		r.filled = len(r.buffer)
	}
}

// Read returns the buffered samples oldest first. Slots that were never
// written are not returned.
func (r *RingBuffer) Read() []int16 {
	samples := make([]int16, r.filled)
	start := r.head - r.filled
	if start < 0 {
		start += len(r.buffer)
	}

	for i := 0; i < r.filled; i++ {
		samples[i] = r.buffer[(start+i)%len(r.buffer)]
	}

	return samples
}

func (r *RingBuffer) Len() int {
	return r.filled
}

func (r *RingBuffer) Clear() {
	r.head = 0
	r.filled = 0
}
