package animation

import "time"

// DefaultAdvance is how long a sequence of several animations shows each one.
const DefaultAdvance = 5 * time.Second

// Sequence plays its members one at a time, advancing on a fixed interval.
type Sequence struct {
	members  []Animation
	advance  time.Duration
	current  int
	switched time.Time
}

// NewSequence creates a sequence. An advance of 0 stays on the first member.
func NewSequence(advance time.Duration, members ...Animation) *Sequence {
	return &Sequence{members: members, advance: advance}
}

// SequenceFor wraps built animations, advancing only when there is more than one.
func SequenceFor(members []Animation) *Sequence {
	if len(members) > 1 {
		return NewSequence(DefaultAdvance, members...)
	}
	return NewSequence(0, members...)
}

// Name returns the name of the current member.
func (s *Sequence) Name() string {
	if len(s.members) == 0 {
		return ""
	}
	return s.members[s.current].Name()
}

// Index returns the position of the current member.
func (s *Sequence) Index() int {
	return s.current
}

// Len returns the number of members.
func (s *Sequence) Len() int {
	return len(s.members)
}

// Animate advances to the next member when due, then animates the current one.
func (s *Sequence) Animate(now time.Time) bool {
	if len(s.members) == 0 {
		return false
	}
	if s.switched.IsZero() {
		s.switched = now
	}
	if s.advance > 0 && len(s.members) > 1 && now.Sub(s.switched) >= s.advance {
		s.current = (s.current + 1) % len(s.members)
		s.members[s.current].Reset()
		s.switched = now
	}
	return s.members[s.current].Animate(now)
}

// Reset returns to the first member.
func (s *Sequence) Reset() {
	s.current = 0
	s.switched = time.Time{}
	for _, m := range s.members {
		m.Reset()
	}
}
