package calculation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// Mean returns the arithmetic mean, zero for an empty slice
func Mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return Sum(values).Div(decimal.NewFromInt(int64(len(values))))
}

// Sum adds the values
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Max returns the largest value, zero for an empty slice
func Max(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	m := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(m) {
			m = v
		}
	}
	return m
}

// Min returns the smallest value, zero for an empty slice
func Min(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	m := values[0]
	for _, v := range values[1:] {
		if v.LessThan(m) {
			m = v
		}
	}
	return m
}

// StdDev returns the population (ddof 0) or sample (ddof 1) standard deviation.
// Fewer values than ddof+1 yields zero.
func StdDev(values []decimal.Decimal, ddof int) decimal.Decimal {
	n := len(values)
	if n <= ddof || n == 0 {
		return decimal.Zero
	}
	mean := Mean(values)
	sq := decimal.Zero
	for _, v := range values {
		d := v.Sub(mean)
		sq = sq.Add(d.Mul(d))
	}
	variance, _ := sq.Div(decimal.NewFromInt(int64(n - ddof))).Float64()
	return decimal.NewFromFloat(math.Sqrt(variance))
}

// CoefficientOfVariation returns std/mean. ok is false when the mean is not positive.
func CoefficientOfVariation(values []decimal.Decimal, ddof int) (cv decimal.Decimal, ok bool) {
	mean := Mean(values)
	if !mean.GreaterThan(decimal.Zero) {
		return decimal.Zero, false
	}
	return StdDev(values, ddof).Div(mean), true
}

// Median returns the median, averaging the middle pair for even counts
func Median(values []decimal.Decimal) decimal.Decimal {
	n := len(values)
	if n == 0 {
		return decimal.Zero
	}
	sorted := sortedCopy(values)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return sorted[n/2-1].Add(sorted[n/2]).Div(decimal.NewFromInt(2))
}

// PercentileInt returns the p-th percentile (0-100) with linear interpolation
// between closest ranks, truncated to an integer.
func PercentileInt(values []int, p float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return int(float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo]))
}

func sortedCopy(values []decimal.Decimal) []decimal.Decimal {
	sorted := append([]decimal.Decimal(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return sorted
}

// PercentOf returns part/whole*100 rounded to one decimal, zero when whole is zero
func PercentOf(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(1)
}
