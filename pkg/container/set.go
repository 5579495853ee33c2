package container

import "github.com/queelius/zeroipc/pkg/segment"

// Set is a HashMap specialized to a zero-width value, giving the same
// bounded, tombstoned, open-addressing behavior with a membership-only API.
type Set[K comparable] struct {
	m *HashMap[K, struct{}]
}

// OpenSet creates or attaches to a named set.
func OpenSet[K comparable](seg *segment.Segment, name string, capacity uint32, maxLoadFactor float64) (*Set[K], error) {
	m, err := OpenHashMap[K, struct{}](seg, name, capacity, maxLoadFactor)
	if err != nil {
		return nil, err
	}
	return &Set[K]{m: m}, nil
}

// Add inserts key, returning already-exists if it's already a member.
func (s *Set[K]) Add(key K) error { return s.m.Insert(key, struct{}{}) }

// Contains reports whether key is a member.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.m.Find(key)
	return ok
}

// Remove discards key, returning false if it wasn't a member.
func (s *Set[K]) Remove(key K) bool { return s.m.Erase(key) }

// Size returns the current member count.
func (s *Set[K]) Size() uint64 { return s.m.Size() }

// ForEach walks every member in physical bucket order.
func (s *Set[K]) ForEach(fn func(K)) {
	s.m.ForEach(func(k K, _ struct{}) { fn(k) })
}

// members materializes every element for use by the set algebra
// operations below, which iterate the smaller operand when possible.
func (s *Set[K]) members() []K {
	out := make([]K, 0, s.Size())
	s.ForEach(func(k K) { out = append(out, k) })
	return out
}

// Union constructs dest as the union of a and b. dest must already be
// open on a segment with enough capacity for the combined membership.
func Union[K comparable](dest, a, b *Set[K]) error {
	for _, k := range a.members() {
		if err := addIfAbsent(dest, k); err != nil {
			return err
		}
	}
	for _, k := range b.members() {
		if err := addIfAbsent(dest, k); err != nil {
			return err
		}
	}
	return nil
}

// Intersection constructs dest as the elements present in both a and b,
// iterating the smaller of the two operands.
func Intersection[K comparable](dest, a, b *Set[K]) error {
	small, large := a, b
	if b.Size() < a.Size() {
		small, large = b, a
	}
	for _, k := range small.members() {
		if large.Contains(k) {
			if err := addIfAbsent(dest, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// Difference constructs dest as the elements in a that are not in b.
func Difference[K comparable](dest, a, b *Set[K]) error {
	for _, k := range a.members() {
		if !b.Contains(k) {
			if err := addIfAbsent(dest, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// IsSubset reports whether every element of a is present in b.
func IsSubset[K comparable](a, b *Set[K]) bool {
	if a.Size() > b.Size() {
		return false
	}
	for _, k := range a.members() {
		if !b.Contains(k) {
			return false
		}
	}
	return true
}

// IsSuperset reports whether every element of b is present in a.
func IsSuperset[K comparable](a, b *Set[K]) bool { return IsSubset(b, a) }

// IsDisjoint reports whether a and b share no elements, iterating the
// smaller operand.
func IsDisjoint[K comparable](a, b *Set[K]) bool {
	small, large := a, b
	if b.Size() < a.Size() {
		small, large = b, a
	}
	for _, k := range small.members() {
		if large.Contains(k) {
			return false
		}
	}
	return true
}

func addIfAbsent[K comparable](s *Set[K], k K) error {
	if s.Contains(k) {
		return nil
	}
	return s.Add(k)
}
