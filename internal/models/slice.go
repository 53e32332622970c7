package models

import "fmt"

// Slice selects a range of indices along one dataset dimension
type Slice struct {
	// Start is the first index included
	Start int

	// Stop is the first index excluded; zero or negative means the dimension length
	Stop int

	// Step is the stride between indices; zero means 1
	Step int
}

// Index returns a slice holding a single position along a dimension
func Index(i int) Slice {
	return Slice{Start: i, Stop: i + 1, Step: 1}
}

// All returns a slice covering a whole dimension
func All() Slice {
	return Slice{Step: 1}
}

// Resolve clamps the slice against a dimension of the given length and
// returns the concrete start, stop and step values
func (s Slice) Resolve(length int) (start, stop, step int, err error) {
	step = s.Step
	if step == 0 {
		step = 1
	}
	if step < 0 {
		return 0, 0, 0, fmt.Errorf("negative step %d not supported", step)
	}

	start = s.Start
	if start < 0 {
		start += length
	}
	stop = s.Stop
	if stop <= 0 {
		stop += length
	}
	if start < 0 || start >= length {
		return 0, 0, 0, fmt.Errorf("slice start %d out of range for length %d", s.Start, length)
	}
	if stop > length {
		stop = length
	}
	if stop <= start {
		return 0, 0, 0, fmt.Errorf("empty slice [%d:%d] for length %d", start, stop, length)
	}
	return start, stop, step, nil
}

// Count returns the number of indices the slice selects in a dimension of the given length
func (s Slice) Count(length int) int {
	start, stop, step, err := s.Resolve(length)
	if err != nil {
		return 0
	}
	return (stop - start + step - 1) / step
}

// String formats the slice the way it is shown in titles, e.g. "2:10:2"
func (s Slice) String() string {
	if s.Stop == s.Start+1 && (s.Step == 1 || s.Step == 0) {
		return fmt.Sprintf("%d", s.Start)
	}
	if s.Step == 0 || s.Step == 1 {
		return fmt.Sprintf("%d:%d", s.Start, s.Stop)
	}
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Stop, s.Step)
}

// AxisOrder is a permutation of dataset dimensions. The first two entries are
// the display axes (x then y); the rest are held at their slice positions.
type AxisOrder []int

// Validate checks that the order is a permutation of 0..rank-1
func (o AxisOrder) Validate(rank int) error {
	if len(o) != rank {
		return fmt.Errorf("axis order has %d entries, dataset rank is %d", len(o), rank)
	}
	seen := make([]bool, rank)
	for _, d := range o {
		if d < 0 || d >= rank {
			return fmt.Errorf("axis %d out of range for rank %d", d, rank)
		}
		if seen[d] {
			return fmt.Errorf("axis %d repeated in order %v", d, []int(o))
		}
		seen[d] = true
	}
	return nil
}

// DefaultOrder returns the identity order for a dataset of the given rank
func DefaultOrder(rank int) AxisOrder {
	o := make(AxisOrder, rank)
	for i := range o {
		o[i] = i
	}
	return o
}
