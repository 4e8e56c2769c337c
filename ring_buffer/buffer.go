package ring_buffer

// Buffer keeps the most recent int16 samples pushed into it, overwriting
// the oldest once full. Not safe for concurrent use.
type Buffer struct {
	buffer []int16
	head   int
	filled int
}

func New(size int) *Buffer {
	return &Buffer{
		buffer: make([]int16, size),
		head:   0,
	}
}

func (r *Buffer) Add(samples []int16) {
	for _, s := range samples {
		r.buffer[r.head] = s
		r.head = (r.head + 1) % len(r.buffer)
		if r.filled < len(r.buffer) {
			r.filled++
		}
	}
}

// Len reports how many valid samples the buffer currently holds.
func (r *Buffer) Len() int {
	return r.filled
}

// Read returns the valid samples ordered oldest to newest. The returned
// slice is freshly allocated.
func (r *Buffer) Read() []int16 {
	samples := make([]int16, r.filled)
	start := (r.head - r.filled + len(r.buffer)) % len(r.buffer)
	for i := 0; i < r.filled; i++ {
		samples[i] = r.buffer[(start+i)%len(r.buffer)]
	}
	return samples
}

func (r *Buffer) Clear() {
	for i := 0; i < len(r.buffer); i++ {
		r.buffer[i] = 0
	}
	r.head = 0
	r.filled = 0
}
