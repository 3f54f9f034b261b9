package realtime

// DefaultContextSize is the number of chunks retained for context.
const DefaultContextSize = 10

// Chunk is one transcribed segment stamped with the wall-clock time it was
// produced. Times are in seconds.
type Chunk struct {
	Timestamp float64 `json:"timestamp"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
}

// ContextBuffer is a bounded FIFO of the most recent chunks, oldest first.
// It is owned by a single Session and is not safe for concurrent use.
type ContextBuffer struct {
	capacity int
	chunks   []Chunk
}

// NewContextBuffer creates a buffer holding at most capacity chunks.
// Non-positive capacities fall back to DefaultContextSize.
func NewContextBuffer(capacity int) *ContextBuffer {
	if capacity <= 0 {
		capacity = DefaultContextSize
	}
	return &ContextBuffer{
		capacity: capacity,
		chunks:   make([]Chunk, 0, capacity),
	}
}

// Append adds c at the tail, evicting the oldest chunk when full.
func (b *ContextBuffer) Append(c Chunk) {
	if len(b.chunks) == b.capacity {
		copy(b.chunks, b.chunks[1:])
		b.chunks = b.chunks[:len(b.chunks)-1]
	}
	b.chunks = append(b.chunks, c)
}

// Snapshot returns a copy of the buffered chunks, oldest first. The result
// is never nil.
func (b *ContextBuffer) Snapshot() []Chunk {
	cp := make([]Chunk, len(b.chunks))
	copy(cp, b.chunks)
	return cp
}

// Len returns the number of buffered chunks.
func (b *ContextBuffer) Len() int {
	return len(b.chunks)
}

// Cap returns the buffer capacity.
func (b *ContextBuffer) Cap() int {
	return b.capacity
}
