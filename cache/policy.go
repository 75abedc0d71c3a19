package cache

// Limits configures cache capacity.
type Limits struct {
	// CountLimit is the maximum number of entries.
	// If zero, the entry count is unbounded.
	CountLimit int

	// TotalCostLimit is the maximum sum of entry costs.
	// If zero, the total cost is unbounded.
	TotalCostLimit int64
}

// DefaultLimits returns the default capacity.
// CountLimit: 100, TotalCostLimit: 64 MiB of cost units.
func DefaultLimits() Limits {
	return Limits{
		CountLimit:     100,
		TotalCostLimit: 64 << 20,
	}
}

// Unbounded returns limits that never evict.
func Unbounded() Limits {
	return Limits{}
}

// normalized clamps negative values to zero (unbounded).
func (l Limits) normalized() Limits {
	if l.CountLimit < 0 {
		l.CountLimit = 0
	}
	if l.TotalCostLimit < 0 {
		l.TotalCostLimit = 0
	}
	return l
}

// Bounded returns true if either dimension is limited.
func (l Limits) Bounded() bool {
	return l.CountLimit > 0 || l.TotalCostLimit > 0
}

// Exceeded reports whether count entries with the given total cost are over
// either limit.
func (l Limits) Exceeded(count int, cost int64) bool {
	if l.CountLimit > 0 && count > l.CountLimit {
		return true
	}
	if l.TotalCostLimit > 0 && cost > l.TotalCostLimit {
		return true
	}
	return false
}

// Admits reports whether a single entry of the given cost can ever fit.
func (l Limits) Admits(cost int64) bool {
	return l.TotalCostLimit <= 0 || cost <= l.TotalCostLimit
}
