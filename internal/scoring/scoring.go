// Package scoring maps a post's character count to its point value.
package scoring

// tiers lists inclusive lower bounds and the points awarded from that bound
// up to the next one. The 4→6 jump between the 1500 and 2000 tiers is
// intentional; there is no 5-point tier.
var tiers = []struct {
	minChars int
	points   int
}{
	{0, 1},
	{500, 2},
	{1000, 3},
	{1500, 4},
	{2000, 6},
	{2500, 7},
	{3000, 8},
	{3500, 9},
	{4000, 10},
	{4500, 11},
	{5000, 12},
}

// Points returns the point value for a post of charCount characters.
// It is total over all non-negative inputs and monotonically non-decreasing;
// negative inputs are treated as zero.
func Points(charCount int) int {
	pts := tiers[0].points
	for _, t := range tiers {
		if charCount < t.minChars {
			break
		}
		pts = t.points
	}
	return pts
}

// MaxPoints is the value of the open-ended top tier.
func MaxPoints() int { return tiers[len(tiers)-1].points }
