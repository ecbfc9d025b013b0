// Package ids allocates object and trigger identifiers for emitted commands.
// The host treats ids as opaque; they only need to be unique per session.
package ids

// Source hands out session-unique integer ids.
type Source interface {
	NextID() int
}

// Sequence is a monotonically increasing Source. Single-threaded by design:
// all command construction happens on the controller loop.
type Sequence struct {
	next int
}

// NewSequence starts allocating at start.
func NewSequence(start int) *Sequence {
	return &Sequence{next: start}
}

func (s *Sequence) NextID() int {
	id := s.next
	s.next++
	return id
}
