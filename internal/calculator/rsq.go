package calculator

// CalculateRSQ returns the coefficient of determination of a least-squares line
// fitted to prices against their index, rounded to 4 decimals.
// Returns 0 when fewer than two prices are given.
func CalculateRSQ(prices []float64) float64 {
	n := float64(len(prices))
	if len(prices) < 2 {
		return 0
	}

	var xSum, ySum, xxSum, xySum float64
	for i, y := range prices {
		x := float64(i)
		xSum += x
		ySum += y
		xxSum += x * x
		xySum += x * y
	}
	delta := n*xxSum - xSum*xSum
	if delta == 0 {
		return 0
	}
	intercept := (xxSum*ySum - xSum*xySum) / delta
	slope := (n*xySum - xSum*ySum) / delta

	mean := ySum / n
	// small epsilon keeps a flat series from dividing by zero
	ssTot := 0.00001
	var ssErr float64
	for i, y := range prices {
		ssTot += (y - mean) * (y - mean)
		e := y - slope*float64(i) - intercept
		ssErr += e * e
	}
	return Round(1-ssErr/ssTot, 4)
}
