package protocol

// OutputBuffer provides an abstraction for writing outgoing protocol data
type OutputBuffer interface {
	// Output writes data to the buffer
	Output(data []byte)

	// CurPosition returns the current write position
	CurPosition() int

	// Update modifies a byte at a specific position
	Update(pos int, val byte)

	// DataSince returns data from a specific position to current
	DataSince(pos int) []byte
}

// ScratchOutput implements OutputBuffer using a fixed-size scratch buffer,
// so firmware can build reports without allocating.
type ScratchOutput struct {
	buf [MessageMax]byte
	pos int
}

// NewScratchOutput creates a new ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends data; bytes beyond the capacity are dropped
func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns the accumulated output data
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset clears the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
}
