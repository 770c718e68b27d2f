package marina

import (
	"fmt"
	"math"
)

// Cost is a scalar plan cost. Costs are non-negative; an unknown or
// unreachable cost is represented by Infinity.
type Cost float64

// Infinity returns the cost used for "no plan found yet" upper bounds.
func Infinity() Cost {
	return Cost(math.Inf(1))
}

// ZeroCost returns the additive identity.
func ZeroCost() Cost {
	return Cost(0)
}

// Add returns the sum of two costs. Adding anything to Infinity stays
// Infinity.
func (c Cost) Add(other Cost) Cost {
	return c + other
}

// Less reports whether c is strictly cheaper than other.
func (c Cost) Less(other Cost) bool {
	return c < other
}

// IsInfinity reports whether the cost is the infinite sentinel.
func (c Cost) IsInfinity() bool {
	return math.IsInf(float64(c), 1)
}

// String returns the cost with two decimals, or "inf".
func (c Cost) String() string {
	if c.IsInfinity() {
		return "inf"
	}
	return fmt.Sprintf("%.2f", float64(c))
}
