package pixel

// SplitRange returns the half-open [start, end) slice of length owned
// by worker idx out of workers, distributing the remainder over the
// leading workers.
func SplitRange(length, workers, idx int) (start, end int) {
	chunk := length / workers
	rem := length % workers
	start = idx * chunk
	if idx < rem {
		start += idx
		return start, start + chunk + 1
	}
	start += rem
	return start, start + chunk
}
