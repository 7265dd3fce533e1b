package control

// Fitness scores one candidate driver set.
//
// Coverage is the fraction of target nodes structurally controllable from
// the driver set; DriverSetSize is the total number of drivers, mandatory
// sources included.
type Fitness struct {
	Coverage      float64
	DriverSetSize int
}

// Compare orders two fitness values.
//
// Higher coverage wins; coverage ties go to the smaller driver set.
// Returns +1 if f is better than other, -1 if worse, 0 if equal.
func (f Fitness) Compare(other Fitness) int {
	if f.Coverage > other.Coverage {
		return 1
	}
	if f.Coverage < other.Coverage {
		return -1
	}
	if f.DriverSetSize < other.DriverSetSize {
		return 1
	}
	if f.DriverSetSize > other.DriverSetSize {
		return -1
	}
	return 0
}

// Better reports whether f strictly beats other
func (f Fitness) Better(other Fitness) bool {
	return f.Compare(other) > 0
}

// FullCoverage reports whether every target is controlled
func (f Fitness) FullCoverage() bool {
	return f.Coverage >= 1.0
}

// CompareDriverSets breaks a full fitness tie deterministically by
// lexicographic order on the sorted driver IDs, so search results are
// reproducible across runs. Returns +1 if a is preferred over b.
func CompareDriverSets(a, b []uint64) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return 1
		}
		if a[i] > b[i] {
			return -1
		}
	}
	if len(a) < len(b) {
		return 1
	}
	if len(a) > len(b) {
		return -1
	}
	return 0
}
