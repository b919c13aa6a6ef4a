package rt

// MutString is a mutable string buffer. String values stay immutable;
// in-place character writes and repeated concatenation promote a value
// to this representation.
type MutString struct {
	buf []byte
}

// NewMutString makes a buffer seeded with s.
func NewMutString(s string) *MutString {
	return &MutString{buf: []byte(s)}
}

// String materializes the current contents.
func (ms *MutString) String() string { return string(ms.buf) }

// Len returns the byte length.
func (ms *MutString) Len() int { return len(ms.buf) }

// Append concatenates s in place.
func (ms *MutString) Append(s string) {
	ms.buf = append(ms.buf, s...)
}

// SetByte writes one byte, growing the buffer with spaces when i is past
// the end.
func (ms *MutString) SetByte(i int, b byte) {
	for len(ms.buf) <= i {
		ms.buf = append(ms.buf, ' ')
	}
	ms.buf[i] = b
}

// Clone copies the backing storage.
func (ms *MutString) Clone() *MutString {
	out := make([]byte, len(ms.buf))
	copy(out, ms.buf)
	return &MutString{buf: out}
}
