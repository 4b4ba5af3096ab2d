package protocol

// OutputBuffer receives encoded payload bytes
type OutputBuffer interface {
	// Output appends data
	Output(data []byte)

	// CurPosition returns the number of bytes written so far
	CurPosition() int
}

// ScratchOutput implements OutputBuffer over a fixed payload-sized buffer.
// Output past the end is truncated and flagged by Overflow.
type ScratchOutput struct {
	buf      [MessagePayloadMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

// Overflow reports whether any Output was truncated since the last Reset
func (s *ScratchOutput) Overflow() bool {
	return s.overflow
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// RxBuffer accumulates received bytes until whole blocks can be parsed.
// Consumed bytes are dropped from the front; the remainder is compacted
// to the start on the next Write so Data is always contiguous.
type RxBuffer struct {
	buf  []byte
	head int
	tail int
}

// NewRxBuffer creates a buffer holding up to capacity unconsumed bytes
func NewRxBuffer(capacity int) *RxBuffer {
	return &RxBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count written
func (r *RxBuffer) Write(data []byte) int {
	if r.head > 0 && r.tail+len(data) > len(r.buf) {
		r.tail = copy(r.buf, r.buf[r.head:r.tail])
		r.head = 0
	}
	n := copy(r.buf[r.tail:], data)
	r.tail += n
	return n
}

// Data returns the unconsumed bytes
func (r *RxBuffer) Data() []byte {
	return r.buf[r.head:r.tail]
}

// Available returns the number of unconsumed bytes
func (r *RxBuffer) Available() int {
	return r.tail - r.head
}

// Free returns the number of bytes Write can accept
func (r *RxBuffer) Free() int {
	return len(r.buf) - r.Available()
}

// Pop consumes n bytes from the front
func (r *RxBuffer) Pop(n int) {
	if n > r.Available() {
		n = r.Available()
	}
	r.head += n
	if r.head == r.tail {
		r.head, r.tail = 0, 0
	}
}

// Reset discards everything
func (r *RxBuffer) Reset() {
	r.head, r.tail = 0, 0
}
